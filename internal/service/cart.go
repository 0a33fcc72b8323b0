package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
)

// CartStore covers the single-row cart mutations and reads. All
// methods are scoped to one buyer; a buyer can never touch another
// buyer's rows through this interface.
type CartStore interface {
	// Upsert creates the (buyer, product) row with qty, or adds qty to
	// the existing row's quantity.
	Upsert(ctx context.Context, buyerID, productID uuid.UUID, qty int) error
	// UpdateQuantity replaces the stored quantity. Returns false when
	// no row matched (missing item or wrong buyer).
	UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (bool, error)
	Delete(ctx context.Context, buyerID, itemID uuid.UUID) (bool, error)
	Lines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error)
	Count(ctx context.Context, buyerID uuid.UUID) (int, error)
	Total(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error)
}

type ProductStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type OrderStore interface {
	ByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)
}

// Manager owns the cart-to-order transition rules. Checkout-level
// atomicity lives behind Store; everything else is one statement per
// operation.
type Manager struct {
	Store    Store
	Cart     CartStore
	Products ProductStore
	Orders   OrderStore
	Log      zerolog.Logger
}

// AddToCart puts qty units of a product into the buyer's cart,
// growing the existing line if one is already there.
func (m *Manager) AddToCart(ctx context.Context, buyerID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ok, err := m.Products.Exists(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err := m.Cart.Upsert(ctx, buyerID, productID, qty); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// UpdateItem replaces the quantity on one cart line. Zero or negative
// quantities are rejected rather than persisted or treated as removal.
func (m *Manager) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	found, err := m.Cart.UpdateQuantity(ctx, buyerID, itemID, qty)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if !found {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

func (m *Manager) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	found, err := m.Cart.Delete(ctx, buyerID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if !found {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

func (m *Manager) CartLines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error) {
	return m.Cart.Lines(ctx, buyerID)
}

func (m *Manager) CartCount(ctx context.Context, buyerID uuid.UUID) (int, error) {
	return m.Cart.Count(ctx, buyerID)
}

// CartTotal is the amount a checkout or a payment-gateway session
// would charge right now.
func (m *Manager) CartTotal(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error) {
	return m.Cart.Total(ctx, buyerID)
}

func (m *Manager) OrdersFor(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	return m.Orders.ByBuyer(ctx, buyerID)
}
