package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a deterministic in-process backend for development
// and tests
type MockProvider struct {
	succeed bool
}

// NewMockProvider creates a mock adapter; succeed controls whether
// Confirm reports COMPLETED or FAILED
func NewMockProvider(succeed bool) *MockProvider {
	return &MockProvider{succeed: succeed}
}

func (p *MockProvider) Type() string {
	return TypeMock
}

// CreateIntent returns a generated reference immediately
func (p *MockProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	return &Intent{
		ProviderRef: fmt.Sprintf("MOCK-%s", uuid.New().String()[:8]),
		Status:      StatusPending,
	}, nil
}

// Confirm resolves according to the configured outcome
func (p *MockProvider) Confirm(ctx context.Context, providerRef string) (*Result, error) {
	status := StatusCompleted
	if !p.succeed {
		status = StatusFailed
	}
	return &Result{ProviderRef: providerRef, Status: status}, nil
}

// Refund always succeeds
func (p *MockProvider) Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error) {
	return &RefundResult{
		ProviderRef: providerRef,
		AmountCents: amountCents,
		Status:      StatusRefunded,
	}, nil
}

type mockWebhookPayload struct {
	Ref    string `json:"ref"`
	Status string `json:"status"`
}

// HandleWebhook accepts any payload carrying a ref and a status
func (p *MockProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	var body mockWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.Ref == "" {
		return &WebhookResult{Valid: false}, nil
	}

	return &WebhookResult{
		Valid:       true,
		ProviderRef: body.Ref,
		Status:      Status(body.Status),
	}, nil
}
