package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Session is everything a provider needs to host a checkout page for
// one pending payment.
type Session struct {
	Amount     decimal.Decimal
	Currency   string
	Email      string
	Reference  string
	SuccessURL string
	CancelURL  string
}

// Gateway is the boundary contract with a payment provider: create a
// hosted session to redirect the buyer to, and verify the payment
// when the buyer comes back. Everything past that boundary belongs to
// the provider.
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, s Session) (redirectURL string, providerRef string, err error)
	Verify(ctx context.Context, providerRef string) error
}

// Registry holds the configured competing providers keyed by name.
type Registry map[string]Gateway

func (r Registry) Get(name string) (Gateway, error) {
	g, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment provider %q", name)
	}
	return g, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
