package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Event[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	BuyerID string    `json:"buyer_id"`
	Payload T         `json:"payload"`
}

const EventOrderPlaced = "order.placed"

type OrderLinePayload struct {
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	Qty        int             `json:"qty"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderPlacedPayload describes one whole checkout: every cart line
// that was converted, plus the cart total at conversion time.
type OrderPlacedPayload struct {
	Total decimal.Decimal    `json:"total"`
	Lines []OrderLinePayload `json:"lines"`
}

func NewOrderPlacedEvent(buyerID uuid.UUID, total decimal.Decimal, lines []OrderLinePayload) Event[OrderPlacedPayload] {
	return Event[OrderPlacedPayload]{
		ID:      uuid.NewString(),
		Type:    EventOrderPlaced,
		Version: 1,
		Time:    time.Now(),
		BuyerID: buyerID.String(),
		Payload: OrderPlacedPayload{Total: total, Lines: lines},
	}
}
