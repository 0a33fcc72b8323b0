package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

// PG is the transactional store behind checkout conversions.
type PG struct{ DB *pgxpool.Pool }

func (s *PG) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

// LockCartLines takes row locks on the buyer's cart items. Concurrent
// conversions for one buyer queue up here; whoever commits first
// leaves the loser an empty cart.
func (t *pgTx) LockCartLines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		select ci.id, ci.buyer_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.name, p.price
		from cart_items ci
		join products p on p.id = ci.product_id
		where ci.buyer_id = $1
		order by ci.created_at
		for update of ci
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var ln model.CartLine
		if err := rows.Scan(
			&ln.ID, &ln.BuyerID, &ln.ProductID, &ln.Quantity, &ln.CreatedAt, &ln.UpdatedAt,
			&ln.ProductName, &ln.UnitPrice,
		); err != nil {
			return nil, err
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, o model.Order) error {
	_, err := t.tx.Exec(ctx, `
		insert into orders(id, buyer_id, product_id, quantity, total_price, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.BuyerID, o.ProductID, o.Quantity, o.TotalPrice, o.CreatedAt)
	return err
}

func (t *pgTx) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `delete from cart_items where id = $1`, itemID)
	return err
}

// EnqueueEvent writes an event into outbox_events within the
// conversion transaction.
func (t *pgTx) EnqueueEvent(ctx context.Context, eventID string, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		insert into outbox_events(id, event_type, payload, attempts, next_attempt_at, created_at)
		values ($1::uuid, $2, $3::jsonb, 0, now(), now())
	`, eventID, eventType, string(b))
	return err
}

func (t *pgTx) CompletePayment(ctx context.Context, buyerID, paymentID uuid.UUID) (decimal.Decimal, bool, error) {
	var amount decimal.Decimal
	err := t.tx.QueryRow(ctx, `
		update pending_payments
		set state = 'completed', updated_at = now()
		where id = $1 and buyer_id = $2 and state = 'initiated'
		returning amount
	`, paymentID, buyerID).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

func (t *pgTx) CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		update pending_payments
		set state = 'cancelled', updated_at = now()
		where id = $1 and buyer_id = $2 and state = 'initiated'
	`, paymentID, buyerID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
