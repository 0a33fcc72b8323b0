package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
)

type CartPG struct{ DB *pgxpool.Pool }

// Upsert relies on the (buyer_id, product_id) unique constraint:
// re-adding a product grows the existing row instead of duplicating.
func (r *CartPG) Upsert(ctx context.Context, buyerID, productID uuid.UUID, qty int) error {
	_, err := r.DB.Exec(ctx, `
		insert into cart_items(id, buyer_id, product_id, quantity, created_at, updated_at)
		values ($1, $2, $3, $4, now(), now())
		on conflict (buyer_id, product_id)
		do update set quantity = cart_items.quantity + excluded.quantity, updated_at = now()
	`, uuid.New(), buyerID, productID, qty)
	return err
}

func (r *CartPG) UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		update cart_items set quantity = $3, updated_at = now()
		where id = $1 and buyer_id = $2
	`, itemID, buyerID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *CartPG) Delete(ctx context.Context, buyerID, itemID uuid.UUID) (bool, error) {
	ct, err := r.DB.Exec(ctx, `delete from cart_items where id = $1 and buyer_id = $2`, itemID, buyerID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *CartPG) Lines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		select ci.id, ci.buyer_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.name, p.price
		from cart_items ci
		join products p on p.id = ci.product_id
		where ci.buyer_id = $1
		order by ci.created_at
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

// Count is the number of distinct cart lines, not the unit total.
func (r *CartPG) Count(ctx context.Context, buyerID uuid.UUID) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `select count(*) from cart_items where buyer_id = $1`, buyerID).Scan(&n)
	return n, err
}

func (r *CartPG) Total(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		select coalesce(sum(ci.quantity * p.price), 0)
		from cart_items ci
		join products p on p.id = ci.product_id
		where ci.buyer_id = $1
	`, buyerID).Scan(&total)
	return total, err
}
