package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"shams/config"
	"shams/models"
	"shams/utils/logger"
)

// Checkout is what the provider hands back for a new payment.
type Checkout struct {
	TransactionID string `json:"transaction_id"`
	CheckoutURL   string `json:"checkout_url"`
}

type Gateway interface {
	CreateCheckout(ctx context.Context, p *models.Payment, description string) (*Checkout, error)
	Status(ctx context.Context, provider, transactionID string) (models.PaymentStatus, error)
}

// NewGateway returns the HTTP gateway when PAYMENT_GATEWAY_URL is set and
// the in-process sandbox otherwise.
func NewGateway(cfg *config.Config, baseLog *logger.Logger) Gateway {
	if cfg.PaymentGatewayURL == "" {
		baseLog.Warn("PAYMENT_GATEWAY_URL not set, payments use the sandbox gateway")
		return NewSandbox(cfg.FrontendURL)
	}
	return NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey, baseLog)
}

// HTTPGateway talks JSON to a payment aggregator in front of the providers.
type HTTPGateway struct {
	client *resty.Client
	log    *logger.Logger
}

func NewHTTPGateway(baseURL, apiKey string, baseLog *logger.Logger) *HTTPGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPGateway{client: client, log: baseLog.With("client", "PaymentGateway")}
}

type gatewayError struct {
	Message string `json:"message"`
}

func (g *HTTPGateway) CreateCheckout(ctx context.Context, p *models.Payment, description string) (*Checkout, error) {
	var out Checkout
	var apiErr gatewayError
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"payment_id":  p.ID,
			"provider":    p.Provider,
			"amount":      p.Amount,
			"description": description,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/checkouts")
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	if resp.IsError() {
		g.log.Warn("Checkout rejected", "payment_id", p.ID, "status", resp.StatusCode(), "message", apiErr.Message)
		return nil, fmt.Errorf("create checkout: gateway returned %d: %s", resp.StatusCode(), apiErr.Message)
	}
	if out.TransactionID == "" || out.CheckoutURL == "" {
		return nil, errors.New("create checkout: incomplete gateway response")
	}
	return &out, nil
}

func (g *HTTPGateway) Status(ctx context.Context, provider, transactionID string) (models.PaymentStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"provider": provider, "txn": transactionID}).
		SetResult(&out).
		Get("/transactions/{provider}/{txn}")
	if err != nil {
		return "", fmt.Errorf("payment status: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("payment status: gateway returned %d", resp.StatusCode())
	}
	status, ok := ParseStatus(out.Status)
	if !ok {
		return "", fmt.Errorf("payment status: unknown status %q", out.Status)
	}
	return status, nil
}

// Sandbox completes nothing on its own; payments stay pending until a
// webhook arrives.
type Sandbox struct {
	frontendURL string
}

func NewSandbox(frontendURL string) *Sandbox {
	return &Sandbox{frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (s *Sandbox) CreateCheckout(_ context.Context, p *models.Payment, _ string) (*Checkout, error) {
	txn := "sbx_" + uuid.NewString()
	return &Checkout{
		TransactionID: txn,
		CheckoutURL:   fmt.Sprintf("%s/payments/%d/sandbox?txn=%s", s.frontendURL, p.ID, txn),
	}, nil
}

func (s *Sandbox) Status(context.Context, string, string) (models.PaymentStatus, error) {
	return models.PaymentStatusPending, nil
}

// ParseStatus accepts the four payment statuses, case-insensitively.
func ParseStatus(v string) (models.PaymentStatus, bool) {
	switch st := models.PaymentStatus(strings.ToLower(strings.TrimSpace(v))); st {
	case models.PaymentStatusPending, models.PaymentStatusCompleted,
		models.PaymentStatusFailed, models.PaymentStatusCancelled:
		return st, true
	}
	return "", false
}
