package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable purchase record for one product line. The
// total is frozen at checkout; later product price changes never
// touch it.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	BuyerID    uuid.UUID       `json:"buyer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}
