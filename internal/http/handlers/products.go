package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

type ProductCatalog interface {
	Insert(ctx context.Context, p model.Product) error
	ByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	All(ctx context.Context) ([]model.Product, error)
}

type ProductsHandler struct {
	Catalog ProductCatalog
	Log     zerolog.Logger
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.All(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "bad product id")
		return
	}
	p, err := h.Catalog.ByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok || !service.Can(u, service.ActionAddProduct) {
		writeFail(w, http.StatusForbidden, "only farmers can add products")
		return
	}

	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Name == "" {
		writeFail(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Price.IsNegative() {
		writeFail(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	p := model.Product{
		ID:          uuid.New(),
		FarmerID:    u.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CreatedAt:   time.Now(),
	}
	if err := h.Catalog.Insert(r.Context(), p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Log.Info().Str("product_id", p.ID.String()).Str("farmer_id", u.ID.String()).Msg("product added")
	writeJSON(w, http.StatusCreated, p)
}
