package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentState string

const (
	PaymentInitiated PaymentState = "initiated"
	PaymentCompleted PaymentState = "completed"
	PaymentCancelled PaymentState = "cancelled"
)

// PendingPayment bridges a gateway redirect to order creation: the row
// is written before the buyer leaves for the provider and flipped to
// completed exactly once when the success callback is confirmed.
type PendingPayment struct {
	ID          uuid.UUID       `json:"id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	Provider    string          `json:"provider"`
	Amount      decimal.Decimal `json:"amount"`
	ProviderRef string          `json:"provider_ref"`
	State       PaymentState    `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
