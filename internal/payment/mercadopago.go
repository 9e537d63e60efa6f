package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// mercadoPagoStatusMap normalizes Mercado Pago payment statuses.
// Anything not listed maps to PENDING.
var mercadoPagoStatusMap = map[string]Status{
	"approved":     StatusCompleted,
	"in_process":   StatusProcessing,
	"in_mediation": StatusProcessing,
	"pending":      StatusPending,
	"authorized":   StatusPending,
	"rejected":     StatusFailed,
	"cancelled":    StatusCancelled,
	"refunded":     StatusRefunded,
	"charged_back": StatusRefunded,
}

// MercadoPagoStatus maps a Mercado Pago status string to the
// normalized status, defaulting unknown inputs to PENDING
func MercadoPagoStatus(s string) Status {
	if mapped, ok := mercadoPagoStatusMap[s]; ok {
		return mapped
	}
	return StatusPending
}

// MercadoPagoProvider talks to the Mercado Pago REST API
type MercadoPagoProvider struct {
	client        *http.Client
	accessToken   string
	webhookSecret string
	baseURL       string
	logger        *zap.Logger
}

// NewMercadoPagoProvider creates a Mercado Pago adapter
func NewMercadoPagoProvider(accessToken, webhookSecret string, logger *zap.Logger) *MercadoPagoProvider {
	return &MercadoPagoProvider{
		client:        &http.Client{Timeout: 15 * time.Second},
		accessToken:   accessToken,
		webhookSecret: webhookSecret,
		baseURL:       mercadoPagoBaseURL,
		logger:        logger,
	}
}

func (p *MercadoPagoProvider) Type() string {
	return TypeMercadoPago
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	Payer             mpPayer            `json:"payer"`
}

type mpPreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPayer struct {
	Email string `json:"email,omitempty"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type mpPaymentResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// CreateIntent creates a checkout preference and returns its init point
func (p *MercadoPagoProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if p.accessToken == "" {
		return nil, fmt.Errorf("%w: mercadopago access token missing", ErrNotConfigured)
	}

	body := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			Title:      req.Description,
			Quantity:   1,
			UnitPrice:  float64(req.AmountCents) / 100,
			CurrencyID: req.Currency,
		}},
		ExternalReference: fmt.Sprintf("order-%d", req.OrderID),
		Payer:             mpPayer{Email: req.CustomerEmail},
	}

	var resp mpPreferenceResponse
	if err := p.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}

	return &Intent{
		ProviderRef: resp.ID,
		Status:      StatusPending,
		CheckoutURL: resp.InitPoint,
	}, nil
}

// Confirm reads the remote payment's current status
func (p *MercadoPagoProvider) Confirm(ctx context.Context, providerRef string) (*Result, error) {
	if p.accessToken == "" {
		return nil, fmt.Errorf("%w: mercadopago access token missing", ErrNotConfigured)
	}

	var resp mpPaymentResponse
	if err := p.do(ctx, http.MethodGet, "/v1/payments/"+providerRef, nil, &resp); err != nil {
		return nil, err
	}

	return &Result{
		ProviderRef: providerRef,
		Status:      MercadoPagoStatus(resp.Status),
	}, nil
}

// Refund refunds a payment; zero amount means a full refund
func (p *MercadoPagoProvider) Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error) {
	if p.accessToken == "" {
		return nil, fmt.Errorf("%w: mercadopago access token missing", ErrNotConfigured)
	}

	var body interface{}
	if amountCents > 0 {
		body = map[string]float64{"amount": float64(amountCents) / 100}
	}

	var resp mpPaymentResponse
	if err := p.do(ctx, http.MethodPost, "/v1/payments/"+providerRef+"/refunds", body, &resp); err != nil {
		return nil, err
	}

	return &RefundResult{
		ProviderRef: providerRef,
		AmountCents: amountCents,
		Status:      StatusRefunded,
	}, nil
}

type mpWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleWebhook validates the x-signature header (ts + HMAC parts) and
// extracts the payment reference. Invalid input never mutates state.
func (p *MercadoPagoProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	var body mpWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.Data.ID == "" {
		return &WebhookResult{Valid: false}, nil
	}

	ts, v1 := parseSignatureHeader(signature)
	if ts == "" || v1 == "" {
		return &WebhookResult{Valid: false}, nil
	}

	manifest := fmt.Sprintf("id:%s;ts:%s;", body.Data.ID, ts)
	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return &WebhookResult{Valid: false}, nil
	}

	if body.Type != "payment" {
		return &WebhookResult{Valid: false}, nil
	}

	result, err := p.Confirm(ctx, body.Data.ID)
	if err != nil {
		return nil, err
	}

	return &WebhookResult{
		Valid:       true,
		ProviderRef: body.Data.ID,
		Status:      result.Status,
	}, nil
}

// parseSignatureHeader splits "ts=...,v1=..." style signature headers
func parseSignatureHeader(signature string) (ts, v1 string) {
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts", "t":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	return ts, v1
}

func (p *MercadoPagoProvider) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		p.logger.Warn("Mercado Pago call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: mercadopago returned %d", ErrUpstream, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: bad response body: %v", ErrUpstream, err)
		}
	}
	return nil
}
