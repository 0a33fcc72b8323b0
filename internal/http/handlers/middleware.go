package handlers

import (
	"context"
	"net/http"
	"strings"

	"farm-market/internal/model"
)

type ctxKey int

const userKey ctxKey = iota

// ResolveUser turns a bearer token into the authenticated user.
type ResolveUser func(ctx context.Context, token string) (model.User, error)

// AuthMiddleware rejects requests without a valid bearer session and
// stashes the resolved user in the request context.
func AuthMiddleware(resolve ResolveUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeFail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			u, err := resolve(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeFail(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

// CurrentUser returns the identity set by AuthMiddleware.
func CurrentUser(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

// BearerToken returns the raw token, for handlers that need it back
// (logout destroys the session by token).
func BearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
