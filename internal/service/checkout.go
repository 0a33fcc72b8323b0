package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
)

// Store runs a function inside one storage transaction: the work
// either commits as a whole or leaves nothing behind.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the slice of the store a conversion needs. LockCartLines must
// take row locks so two conversions for the same buyer serialize: the
// second one sees an already-empty cart and converts nothing.
type Tx interface {
	LockCartLines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error)
	InsertOrder(ctx context.Context, o model.Order) error
	DeleteCartItem(ctx context.Context, itemID uuid.UUID) error
	EnqueueEvent(ctx context.Context, eventID string, eventType string, payload any) error
	// CompletePayment flips a pending payment initiated -> completed
	// and returns the amount the payment was created for. flipped is
	// false if the row was not in initiated state, meaning a duplicate
	// callback that must not convert the cart again.
	CompletePayment(ctx context.Context, buyerID, paymentID uuid.UUID) (amount decimal.Decimal, flipped bool, err error)
	CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) (bool, error)
}

// Checkout converts the buyer's whole cart into order rows, one per
// line, priced at the current product price. The conversion, the cart
// cleanup and the order.placed event commit together.
func (m *Manager) Checkout(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := m.Store.InTx(ctx, func(tx Tx) error {
		var err error
		orders, err = m.convert(ctx, tx, buyerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	m.Log.Info().Str("buyer_id", buyerID.String()).Int("orders", len(orders)).Msg("checkout done")
	return orders, nil
}

// ConfirmPayment is the success-callback half of the gateway
// handshake: the pending payment flips to completed and the cart
// converts, all in the same transaction. A duplicate callback finds
// the row already completed and is a no-op. The locked cart total must
// still equal the amount the provider confirmed; a cart that changed
// between session creation and the callback aborts the conversion and
// rolls the state flip back.
func (m *Manager) ConfirmPayment(ctx context.Context, buyerID, paymentID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := m.Store.InTx(ctx, func(tx Tx) error {
		amount, flipped, err := tx.CompletePayment(ctx, buyerID, paymentID)
		if err != nil {
			return err
		}
		if !flipped {
			m.Log.Warn().Str("payment_id", paymentID.String()).Msg("payment already settled, skipping conversion")
			return nil
		}
		lines, err := tx.LockCartLines(ctx, buyerID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		total := decimal.Zero
		for _, ln := range lines {
			total = total.Add(ln.Subtotal())
		}
		if !total.Equal(amount) {
			return fmt.Errorf("cart total %s no longer matches paid amount %s: %w", total, amount, ErrConflict)
		}
		orders, err = m.convertLines(ctx, tx, buyerID, lines)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	return orders, nil
}

// CancelPayment marks a pending payment cancelled. The cart stays
// untouched so the buyer can retry.
func (m *Manager) CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) error {
	return m.Store.InTx(ctx, func(tx Tx) error {
		found, err := tx.CancelPayment(ctx, buyerID, paymentID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		return nil
	})
}

func (m *Manager) convert(ctx context.Context, tx Tx, buyerID uuid.UUID) ([]model.Order, error) {
	lines, err := tx.LockCartLines(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return m.convertLines(ctx, tx, buyerID, lines)
}

func (m *Manager) convertLines(ctx context.Context, tx Tx, buyerID uuid.UUID, lines []model.CartLine) ([]model.Order, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	now := time.Now()
	total := decimal.Zero
	orders := make([]model.Order, 0, len(lines))
	payload := make([]model.OrderLinePayload, 0, len(lines))

	for _, ln := range lines {
		o := model.Order{
			ID:         uuid.New(),
			BuyerID:    buyerID,
			ProductID:  ln.ProductID,
			Quantity:   ln.Quantity,
			TotalPrice: ln.Subtotal(),
			CreatedAt:  now,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		if err := tx.DeleteCartItem(ctx, ln.ID); err != nil {
			return nil, fmt.Errorf("delete cart item: %w", err)
		}
		total = total.Add(o.TotalPrice)
		orders = append(orders, o)
		payload = append(payload, model.OrderLinePayload{
			OrderID:    o.ID.String(),
			ProductID:  o.ProductID.String(),
			Qty:        o.Quantity,
			TotalPrice: o.TotalPrice,
		})
	}

	evt := model.NewOrderPlacedEvent(buyerID, total, payload)
	if err := tx.EnqueueEvent(ctx, evt.ID, evt.Type, evt); err != nil {
		return nil, fmt.Errorf("enqueue event: %w", err)
	}
	return orders, nil
}
