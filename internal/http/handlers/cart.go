package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

// CartService is the slice of the transition manager the cart routes
// use.
type CartService interface {
	AddToCart(ctx context.Context, buyerID, productID uuid.UUID, qty int) error
	UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error
	CartLines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error)
	CartCount(ctx context.Context, buyerID uuid.UUID) (int, error)
	CartTotal(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error)
}

type CartHandler struct {
	Svc CartService
	Log zerolog.Logger
}

func buyer(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "not logged in")
		return model.User{}, false
	}
	if !service.Can(u, service.ActionManageCart) {
		writeFail(w, http.StatusForbidden, "only buyers have a cart")
		return model.User{}, false
	}
	return u, true
}

type cartResp struct {
	Items []model.CartLine `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := buyer(w, r)
	if !ok {
		return
	}
	lines, err := h.Svc.CartLines(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	total, err := h.Svc.CartTotal(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	writeJSON(w, http.StatusOK, cartResp{Items: lines, Total: total})
}

func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	u, ok := buyer(w, r)
	if !ok {
		return
	}
	n, err := h.Svc.CartCount(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

type addToCartReq struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  *int      `json:"quantity"` // nil means 1
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	u, ok := buyer(w, r)
	if !ok {
		return
	}
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if err := h.Svc.AddToCart(r.Context(), u.ID, req.ProductID, qty); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "product added to cart"})
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := buyer(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "bad item id")
		return
	}
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.Svc.UpdateItem(r.Context(), u.ID, itemID, req.Quantity); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeOK(w)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	u, ok := buyer(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "bad item id")
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), u.ID, itemID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "product removed from cart"})
}
