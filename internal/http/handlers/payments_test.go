package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/auth"
	"farm-market/internal/model"
	"farm-market/internal/payment"
)

var testSecret = []byte("callback-secret")

type fakePaymentStore struct {
	pending model.PendingPayment
}

func (f *fakePaymentStore) Insert(ctx context.Context, p model.PendingPayment) error {
	f.pending = p
	return nil
}
func (f *fakePaymentStore) SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error {
	f.pending.ProviderRef = ref
	return nil
}
func (f *fakePaymentStore) ByID(ctx context.Context, id uuid.UUID) (model.PendingPayment, error) {
	if f.pending.ID != id {
		return model.PendingPayment{}, errors.New("no such payment")
	}
	return f.pending, nil
}

type fakePaymentService struct {
	confirmed int
	cancelled int
}

func (f *fakePaymentService) CartTotal(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error) {
	return decimal.RequireFromString("30.00"), nil
}
func (f *fakePaymentService) ConfirmPayment(ctx context.Context, buyerID, paymentID uuid.UUID) ([]model.Order, error) {
	f.confirmed++
	return []model.Order{{ID: uuid.New(), BuyerID: buyerID}}, nil
}
func (f *fakePaymentService) CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) error {
	f.cancelled++
	return nil
}

type fakeGateway struct {
	verifyErr error
}

func (g *fakeGateway) Name() string { return "fake" }
func (g *fakeGateway) CreateSession(ctx context.Context, s payment.Session) (string, string, error) {
	return "https://pay.test/session", "ref-1", nil
}
func (g *fakeGateway) Verify(ctx context.Context, providerRef string) error { return g.verifyErr }

func paymentsHandler(store *fakePaymentStore, svc *fakePaymentService, gw payment.Gateway) *PaymentsHandler {
	return &PaymentsHandler{
		Svc:      svc,
		Payments: store,
		Gateways: payment.Registry{"fake": gw},
		Secret:   testSecret,
		BaseURL:  "https://market.test",
		Currency: "USD",
		Log:      zerolog.Nop(),
	}
}

func TestPaymentReturnConfirmsAndConverts(t *testing.T) {
	buyer := uuid.New()
	paymentID := uuid.New()
	store := &fakePaymentStore{pending: model.PendingPayment{
		ID: paymentID, BuyerID: buyer, Provider: "fake", ProviderRef: "ref-1",
		State: model.PaymentInitiated,
	}}
	svc := &fakePaymentService{}
	h := paymentsHandler(store, svc, &fakeGateway{})

	token, err := auth.SignCallback(testSecret, paymentID, buyer, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?token="+url.QueryEscape(token), nil)
	rec := httptest.NewRecorder()
	h.Return(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if svc.confirmed != 1 {
		t.Errorf("want 1 confirmation, got %d", svc.confirmed)
	}
	var resp checkoutResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Orders) != 1 {
		t.Errorf("unexpected payload: %s", rec.Body)
	}
}

func TestPaymentReturnRejectsForeignToken(t *testing.T) {
	paymentID := uuid.New()
	store := &fakePaymentStore{pending: model.PendingPayment{
		ID: paymentID, BuyerID: uuid.New(), Provider: "fake",
	}}
	svc := &fakePaymentService{}
	h := paymentsHandler(store, svc, &fakeGateway{})

	// Signed for a different buyer than the pending payment's owner.
	token, err := auth.SignCallback(testSecret, paymentID, uuid.New(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?token="+url.QueryEscape(token), nil)
	rec := httptest.NewRecorder()
	h.Return(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
	if svc.confirmed != 0 {
		t.Error("conversion ran for mismatched token")
	}
}

func TestPaymentReturnWithoutProviderConfirmation(t *testing.T) {
	buyer := uuid.New()
	paymentID := uuid.New()
	store := &fakePaymentStore{pending: model.PendingPayment{
		ID: paymentID, BuyerID: buyer, Provider: "fake", ProviderRef: "ref-1",
	}}
	svc := &fakePaymentService{}
	h := paymentsHandler(store, svc, &fakeGateway{verifyErr: errors.New("not settled")})

	token, err := auth.SignCallback(testSecret, paymentID, buyer, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?token="+url.QueryEscape(token), nil)
	rec := httptest.NewRecorder()
	h.Return(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", rec.Code)
	}
	if svc.confirmed != 0 {
		t.Error("orders created without provider confirmation")
	}
}

func TestPaymentCancelKeepsQuiet(t *testing.T) {
	buyer := uuid.New()
	paymentID := uuid.New()
	svc := &fakePaymentService{}
	h := paymentsHandler(&fakePaymentStore{}, svc, &fakeGateway{})

	token, err := auth.SignCallback(testSecret, paymentID, buyer, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/cancel?token="+url.QueryEscape(token), nil)
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if svc.cancelled != 1 || svc.confirmed != 0 {
		t.Errorf("want 1 cancel and 0 confirms, got %d/%d", svc.cancelled, svc.confirmed)
	}
}
