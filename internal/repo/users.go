package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"farm-market/internal/model"
	"farm-market/internal/service"
)

const uniqueViolation = "23505"

type UsersPG struct{ DB *pgxpool.Pool }

func (r *UsersPG) Insert(ctx context.Context, u model.User) error {
	_, err := r.DB.Exec(ctx, `
		insert into users(id, username, email, password_hash, role, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("email %s: %w", u.Email, service.ErrConflict)
	}
	return err
}

func (r *UsersPG) ByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `
		select id, username, email, password_hash, role, created_at
		from users where email = $1
	`, email))
}

func (r *UsersPG) ByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `
		select id, username, email, password_hash, role, created_at
		from users where id = $1
	`, id))
}

// Update rewrites the mutable profile fields, password hash included.
func (r *UsersPG) Update(ctx context.Context, u model.User) error {
	ct, err := r.DB.Exec(ctx, `
		update users set username = $2, email = $3, password_hash = $4
		where id = $1
	`, u.ID, u.Username, u.Email, u.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("email %s: %w", u.Email, service.ErrConflict)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, service.ErrNotFound)
	}
	return nil
}

func (r *UsersPG) scanOne(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user: %w", service.ErrNotFound)
	}
	return u, err
}
