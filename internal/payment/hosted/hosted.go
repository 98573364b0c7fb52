// Package hosted implements the payment provider client for a hosted
// checkout flow. The provider exposes a JSON API that mints checkout
// sessions; shoppers are redirected to the returned URL to pay.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/meridian-commerce/storefront/internal/payment"
	"github.com/meridian-commerce/storefront/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL    string
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// Provider creates hosted checkout sessions over HTTP.
type Provider struct {
	cfg    Config
	client HTTPDoer
	logger *slog.Logger
}

// NewProvider creates a hosted checkout provider client.
func NewProvider(cfg Config, client HTTPDoer, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

type createSessionRequest struct {
	LineItems       []payment.CheckoutLine `json:"line_items"`
	Email           string                 `json:"customer_email,omitempty"`
	ClientReference string                 `json:"client_reference_id,omitempty"`
	SuccessURL      string                 `json:"success_url"`
	CancelURL       string                 `json:"cancel_url"`
}

type createSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckout mints a checkout session for the given lines.
func (p *Provider) CreateCheckout(ctx context.Context, checkout payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	req := createSessionRequest{
		LineItems:       checkout.Lines,
		Email:           checkout.Email,
		ClientReference: checkout.ClientReference,
		SuccessURL:      p.cfg.SuccessURL,
		CancelURL:       p.cfg.CancelURL,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var sessionResp createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}

	p.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sessionResp.ID),
	)

	return &payment.CheckoutSession{
		SessionID:   sessionResp.ID,
		RedirectURL: sessionResp.URL,
	}, nil
}
