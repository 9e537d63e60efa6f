package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const stripeBaseURL = "https://api.stripe.com"

// stripeStatusMap normalizes Stripe payment intent statuses.
// Anything not listed maps to PENDING.
var stripeStatusMap = map[string]Status{
	"succeeded":               StatusCompleted,
	"processing":              StatusProcessing,
	"requires_action":         StatusRequiresAction,
	"requires_payment_method": StatusPending,
	"requires_confirmation":   StatusPending,
	"requires_capture":        StatusPending,
	"canceled":                StatusCancelled,
}

// StripeStatus maps a Stripe payment intent status to the normalized
// status, defaulting unknown inputs to PENDING
func StripeStatus(s string) Status {
	if mapped, ok := stripeStatusMap[s]; ok {
		return mapped
	}
	return StatusPending
}

// StripeProvider talks to the Stripe API (Connect accounts)
type StripeProvider struct {
	client        *http.Client
	secretKey     string
	webhookSecret string
	baseURL       string
	logger        *zap.Logger
}

// NewStripeProvider creates a Stripe adapter
func NewStripeProvider(secretKey, webhookSecret string, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		client:        &http.Client{Timeout: 15 * time.Second},
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       stripeBaseURL,
		logger:        logger,
	}
}

func (p *StripeProvider) Type() string {
	return TypeStripe
}

type stripeIntentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent creates a payment intent and returns its client secret
func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if p.secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key missing", ErrNotConfigured)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("description", req.Description)
	form.Set("metadata[order_id]", strconv.FormatInt(req.OrderID, 10))
	if req.CustomerEmail != "" {
		form.Set("receipt_email", req.CustomerEmail)
	}

	var resp stripeIntentResponse
	if err := p.do(ctx, http.MethodPost, "/v1/payment_intents", form, &resp); err != nil {
		return nil, err
	}

	return &Intent{
		ProviderRef:  resp.ID,
		Status:       StripeStatus(resp.Status),
		ClientSecret: resp.ClientSecret,
	}, nil
}

// Confirm reads the remote intent's current status
func (p *StripeProvider) Confirm(ctx context.Context, providerRef string) (*Result, error) {
	if p.secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key missing", ErrNotConfigured)
	}

	var resp stripeIntentResponse
	if err := p.do(ctx, http.MethodGet, "/v1/payment_intents/"+providerRef, nil, &resp); err != nil {
		return nil, err
	}

	return &Result{
		ProviderRef: providerRef,
		Status:      StripeStatus(resp.Status),
	}, nil
}

// Refund refunds an intent; zero amount means a full refund
func (p *StripeProvider) Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error) {
	if p.secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key missing", ErrNotConfigured)
	}

	form := url.Values{}
	form.Set("payment_intent", providerRef)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}

	var resp stripeIntentResponse
	if err := p.do(ctx, http.MethodPost, "/v1/refunds", form, &resp); err != nil {
		return nil, err
	}

	return &RefundResult{
		ProviderRef: providerRef,
		AmountCents: amountCents,
		Status:      StatusRefunded,
	}, nil
}

type stripeWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhook verifies the Stripe-Signature header (HMAC-SHA256 over
// "<timestamp>.<payload>") and extracts the intent reference
func (p *StripeProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ts, v1 := parseSignatureHeader(signature)
	if ts == "" || v1 == "" {
		return &WebhookResult{Valid: false}, nil
	}

	signed := fmt.Sprintf("%s.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(signed))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return &WebhookResult{Valid: false}, nil
	}

	var body stripeWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.Data.Object.ID == "" {
		return &WebhookResult{Valid: false}, nil
	}

	if !strings.HasPrefix(body.Type, "payment_intent.") {
		return &WebhookResult{Valid: false}, nil
	}

	return &WebhookResult{
		Valid:       true,
		ProviderRef: body.Data.Object.ID,
		Status:      StripeStatus(body.Data.Object.Status),
	}, nil
}

func (p *StripeProvider) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

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
		p.logger.Warn("Stripe call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: stripe returned %d", ErrUpstream, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: bad response body: %v", ErrUpstream, err)
		}
	}
	return nil
}
