package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farm-market/internal/service"
	"farm-market/pkg/cache"
)

// Sessions maps opaque bearer tokens to user ids in Redis. Logout is
// a key delete; expiry is the TTL.
type Sessions struct {
	Cache *cache.Redis
	TTL   time.Duration
}

func sessionKey(token string) string { return "session:" + token }

func (s *Sessions) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.Cache.SetString(ctx, sessionKey(token), userID.String(), s.TTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *Sessions) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	v, err := s.Cache.GetString(ctx, sessionKey(token))
	if errors.Is(err, cache.Nil) {
		return uuid.Nil, service.ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve session: %w", err)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, service.ErrUnauthorized
	}
	return id, nil
}

func (s *Sessions) Destroy(ctx context.Context, token string) error {
	return s.Cache.Delete(ctx, sessionKey(token))
}
