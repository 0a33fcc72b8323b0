package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"farm-market/internal/model"
)

type OrdersPG struct{ DB *pgxpool.Pool }

func (r *OrdersPG) ByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	rows, err := r.DB.Query(ctx, `
		select id, buyer_id, product_id, quantity, total_price, created_at
		from orders
		where buyer_id = $1
		order by created_at desc
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
