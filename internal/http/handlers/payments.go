package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/auth"
	"farm-market/internal/model"
	"farm-market/internal/payment"
	"farm-market/internal/service"
)

type PaymentStore interface {
	Insert(ctx context.Context, p model.PendingPayment) error
	SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error
	ByID(ctx context.Context, id uuid.UUID) (model.PendingPayment, error)
}

type PaymentService interface {
	CartTotal(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error)
	ConfirmPayment(ctx context.Context, buyerID, paymentID uuid.UUID) ([]model.Order, error)
	CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) error
}

// PaymentsHandler runs the gateway handshake: pending row first, then
// the hosted session, and on return a verified, exactly-once cart
// conversion.
type PaymentsHandler struct {
	Svc      PaymentService
	Payments PaymentStore
	Gateways payment.Registry
	Secret   []byte
	BaseURL  string
	Currency string
	Log      zerolog.Logger
}

const callbackTokenTTL = time.Hour

type startPaymentResp struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
}

func (h *PaymentsHandler) Start(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if !service.Can(u, service.ActionCheckout) {
		writeFail(w, http.StatusForbidden, "only buyers can check out")
		return
	}

	gw, err := h.Gateways.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := h.Svc.CartTotal(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if total.IsZero() {
		writeFail(w, http.StatusBadRequest, "cart is empty")
		return
	}

	pending := model.PendingPayment{
		ID:       uuid.New(),
		BuyerID:  u.ID,
		Provider: gw.Name(),
		Amount:   total,
		State:    model.PaymentInitiated,
	}
	if err := h.Payments.Insert(r.Context(), pending); err != nil {
		writeError(w, h.Log, err)
		return
	}

	token, err := auth.SignCallback(h.Secret, pending.ID, u.ID, callbackTokenTTL)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	redirect, ref, err := gw.CreateSession(r.Context(), payment.Session{
		Amount:     total,
		Currency:   h.Currency,
		Email:      u.Email,
		Reference:  pending.ID.String(),
		SuccessURL: h.callbackURL("/api/v1/payments/return", token),
		CancelURL:  h.callbackURL("/api/v1/payments/cancel", token),
	})
	if err != nil {
		h.Log.Error().Err(err).Str("provider", gw.Name()).Msg("gateway session failed")
		writeFail(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}
	if err := h.Payments.SetProviderRef(r.Context(), pending.ID, ref); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.Info().
		Str("payment_id", pending.ID.String()).
		Str("provider", gw.Name()).
		Str("amount", total.String()).
		Msg("payment session created")
	writeJSON(w, http.StatusOK, startPaymentResp{Success: true, RedirectURL: redirect})
}

func (h *PaymentsHandler) callbackURL(path, token string) string {
	return h.BaseURL + path + "?token=" + url.QueryEscape(token)
}

// Return handles the provider's success redirect. Orders are created
// only after the provider confirms the payment, and a replayed
// callback converts nothing twice.
func (h *PaymentsHandler) Return(w http.ResponseWriter, r *http.Request) {
	paymentID, buyerID, err := auth.ParseCallback(h.Secret, r.URL.Query().Get("token"))
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "invalid callback token")
		return
	}

	pending, err := h.Payments.ByID(r.Context(), paymentID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if pending.BuyerID != buyerID {
		writeFail(w, http.StatusForbidden, "token does not match payment")
		return
	}

	gw, err := h.Gateways.Get(pending.Provider)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := gw.Verify(r.Context(), pending.ProviderRef); err != nil {
		h.Log.Warn().Err(err).Str("payment_id", paymentID.String()).Msg("gateway verification failed")
		writeFail(w, http.StatusBadGateway, "payment not confirmed by provider")
		return
	}

	orders, err := h.Svc.ConfirmPayment(r.Context(), buyerID, paymentID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, checkoutResp{Success: true, Orders: orders})
}

func (h *PaymentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	paymentID, buyerID, err := auth.ParseCallback(h.Secret, r.URL.Query().Get("token"))
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "invalid callback token")
		return
	}
	if err := h.Svc.CancelPayment(r.Context(), buyerID, paymentID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "payment cancelled, cart kept"})
}
