package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// Stripe drives Stripe Checkout through its form-encoded REST API.
// The session id Stripe hands back is the provider reference.
type Stripe struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewStripe(baseURL, apiKey string) *Stripe {
	return &Stripe{BaseURL: baseURL, APIKey: apiKey, Client: httpClient()}
}

func (s *Stripe) Name() string { return "stripe" }

type stripeSessionResp struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

func (s *Stripe) CreateSession(ctx context.Context, sess Session) (string, string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", sess.SuccessURL)
	form.Set("cancel_url", sess.CancelURL)
	form.Set("customer_email", sess.Email)
	form.Set("client_reference_id", sess.Reference)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(sess.Currency))
	form.Set("line_items[0][price_data][product_data][name]", "Cart total")
	form.Set("line_items[0][price_data][unit_amount]", sess.Amount.Mul(centsPerUnit).StringFixed(0))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("stripe create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("stripe create session: status %d", resp.StatusCode)
	}

	var out stripeSessionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("stripe create session: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return "", "", fmt.Errorf("stripe create session: empty session in response")
	}
	return out.URL, out.ID, nil
}

func (s *Stripe) Verify(ctx context.Context, providerRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/v1/checkout/sessions/"+providerRef, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe verify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stripe verify: status %d", resp.StatusCode)
	}

	var out stripeSessionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("stripe verify: %w", err)
	}
	if out.PaymentStatus != "paid" {
		return fmt.Errorf("stripe verify: session %s not paid (status %q)", providerRef, out.PaymentStatus)
	}
	return nil
}
