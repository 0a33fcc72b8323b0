package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Chapa drives the Chapa hosted checkout: initialize with our own
// reference as tx_ref, verify by that same reference on return.
type Chapa struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

func NewChapa(baseURL, secretKey string) *Chapa {
	return &Chapa{BaseURL: baseURL, SecretKey: secretKey, Client: httpClient()}
}

func (c *Chapa) Name() string { return "chapa" }

type chapaInitReq struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Email     string `json:"email"`
	TxRef     string `json:"tx_ref"`
	ReturnURL string `json:"return_url"`
}

type chapaInitResp struct {
	Status string `json:"status"`
	Data   struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

func (c *Chapa) CreateSession(ctx context.Context, s Session) (string, string, error) {
	body, err := json.Marshal(chapaInitReq{
		Amount:    s.Amount.String(),
		Currency:  s.Currency,
		Email:     s.Email,
		TxRef:     s.Reference,
		ReturnURL: s.SuccessURL,
	})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("chapa initialize: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("chapa initialize: status %d", resp.StatusCode)
	}

	var out chapaInitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("chapa initialize: %w", err)
	}
	if out.Status != "success" || out.Data.CheckoutURL == "" {
		return "", "", fmt.Errorf("chapa initialize: rejected with status %q", out.Status)
	}
	return out.Data.CheckoutURL, s.Reference, nil
}

type chapaVerifyResp struct {
	Status string `json:"status"`
	Data   struct {
		Status string `json:"status"`
	} `json:"data"`
}

func (c *Chapa) Verify(ctx context.Context, providerRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/transaction/verify/"+providerRef, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("chapa verify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chapa verify: status %d", resp.StatusCode)
	}

	var out chapaVerifyResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("chapa verify: %w", err)
	}
	if out.Data.Status != "success" {
		return fmt.Errorf("chapa verify: payment %s not settled (status %q)", providerRef, out.Data.Status)
	}
	return nil
}
