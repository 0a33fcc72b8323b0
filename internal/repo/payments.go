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

type PaymentsPG struct{ DB *pgxpool.Pool }

func (r *PaymentsPG) Insert(ctx context.Context, p model.PendingPayment) error {
	_, err := r.DB.Exec(ctx, `
		insert into pending_payments(id, buyer_id, provider, amount, provider_ref, state, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, now(), now())
	`, p.ID, p.BuyerID, p.Provider, p.Amount, p.ProviderRef, p.State)
	return err
}

func (r *PaymentsPG) SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error {
	_, err := r.DB.Exec(ctx, `
		update pending_payments set provider_ref = $2, updated_at = now() where id = $1
	`, id, ref)
	return err
}

func (r *PaymentsPG) ByID(ctx context.Context, id uuid.UUID) (model.PendingPayment, error) {
	var p model.PendingPayment
	err := r.DB.QueryRow(ctx, `
		select id, buyer_id, provider, amount, provider_ref, state, created_at, updated_at
		from pending_payments where id = $1
	`, id).Scan(&p.ID, &p.BuyerID, &p.Provider, &p.Amount, &p.ProviderRef, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PendingPayment{}, fmt.Errorf("payment %s: %w", id, service.ErrNotFound)
	}
	return p, err
}
