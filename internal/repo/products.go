package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

type ProductsPG struct{ DB *pgxpool.Pool }

func (r *ProductsPG) Insert(ctx context.Context, p model.Product) error {
	_, err := r.DB.Exec(ctx, `
		insert into products(id, farmer_id, name, description, price, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.FarmerID, p.Name, p.Description, p.Price, p.CreatedAt)
	return err
}

func (r *ProductsPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `select exists(select 1 from products where id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *ProductsPG) ByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var p model.Product
	err := r.DB.QueryRow(ctx, `
		select id, farmer_id, name, description, price, created_at
		from products where id = $1
	`, id).Scan(&p.ID, &p.FarmerID, &p.Name, &p.Description, &p.Price, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, fmt.Errorf("product %s: %w", id, service.ErrNotFound)
	}
	return p, err
}

func (r *ProductsPG) All(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.Query(ctx, `
		select id, farmer_id, name, description, price, created_at
		from products order by created_at desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.FarmerID, &p.Name, &p.Description, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
