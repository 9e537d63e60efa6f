package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Status is the normalized payment status shared by all providers
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusCompleted      Status = "COMPLETED"
	StatusFailed         Status = "FAILED"
	StatusCancelled      Status = "CANCELLED"
	StatusRefunded       Status = "REFUNDED"
	StatusRequiresAction Status = "REQUIRES_ACTION"
)

// Provider types
const (
	TypeMercadoPago  = "mercadopago"
	TypeStripe       = "stripe"
	TypeBankTransfer = "bank_transfer"
	TypeNFC          = "nfc"
	TypeMock         = "mock"
)

var (
	// ErrNotConfigured means the provider has no credentials
	ErrNotConfigured = errors.New("payment provider not configured")
	// ErrUpstream means the remote provider call failed
	ErrUpstream = errors.New("payment provider upstream error")
	// ErrUnknownProvider means no adapter is registered for the type
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrUnsupported means the provider cannot perform the operation
	ErrUnsupported = errors.New("operation not supported by provider")
)

// IntentRequest describes a payment to be started with a provider
type IntentRequest struct {
	OrderID       int64
	AmountCents   int64
	Currency      string
	Description   string
	CustomerEmail string
}

// Intent is the normalized result of starting a payment
type Intent struct {
	ProviderRef  string
	Status       Status
	CheckoutURL  string
	ClientSecret string
	Instructions string
}

// Result is the normalized outcome of reading a payment's remote state
type Result struct {
	ProviderRef string
	Status      Status
}

// RefundResult is the normalized outcome of a refund
type RefundResult struct {
	ProviderRef string
	AmountCents int64
	Status      Status
}

// WebhookResult carries a parsed, signature-checked webhook. When
// Valid is false the caller must not mutate any state.
type WebhookResult struct {
	Valid       bool
	ProviderRef string
	Status      Status
}

// Provider is one interchangeable payment backend
type Provider interface {
	Type() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Confirm(ctx context.Context, providerRef string) (*Result, error)
	Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

// Registry routes operations to the adapter for a provider type
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, replacing any previous adapter of the same type
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// Get returns the adapter for a provider type
func (r *Registry) Get(providerType string) (Provider, error) {
	p, ok := r.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerType)
	}
	return p, nil
}

// Types lists registered provider types, sorted
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
