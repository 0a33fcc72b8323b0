package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

type CheckoutService interface {
	Checkout(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)
	OrdersFor(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)
}

type OrdersHandler struct {
	Svc CheckoutService
	Log zerolog.Logger
}

type checkoutResp struct {
	Success bool          `json:"success"`
	Orders  []model.Order `json:"orders"`
}

// Checkout converts the whole cart in one transaction. An empty cart
// is not an error; it just produces no orders.
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if !service.Can(u, service.ActionCheckout) {
		writeFail(w, http.StatusForbidden, "only buyers can check out")
		return
	}

	orders, err := h.Svc.Checkout(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, checkoutResp{Success: true, Orders: orders})
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if !service.Can(u, service.ActionViewOrders) {
		writeFail(w, http.StatusForbidden, "only buyers have orders")
		return
	}

	orders, err := h.Svc.OrdersFor(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
