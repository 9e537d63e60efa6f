package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMockProvider(true))
	r.Register(NewNFCProvider(time.Minute))
	r.Register(NewBankTransferProvider("ACME", "000-1"))
	r.Register(NewStripeProvider("sk", "wh", zap.NewNop()))
	r.Register(NewMercadoPagoProvider("tok", "wh", zap.NewNop()))

	p, err := r.Get(TypeMock)
	require.NoError(t, err)
	assert.Equal(t, TypeMock, p.Type())

	_, err = r.Get("paypal")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Equal(t, []string{
		TypeBankTransfer, TypeMercadoPago, TypeMock, TypeNFC, TypeStripe,
	}, r.Types())
}

func TestBankTransferIntent(t *testing.T) {
	p := NewBankTransferProvider("FlowBond Venues SA", "0012-3456")

	intent, err := p.CreateIntent(context.Background(), IntentRequest{
		OrderID:     9,
		AmountCents: 12345,
		Currency:    "USD",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(intent.ProviderRef, "BT-"))
	assert.Equal(t, StatusPending, intent.Status)
	assert.Contains(t, intent.Instructions, "123.45 USD")
	assert.Contains(t, intent.Instructions, intent.ProviderRef)

	// transfers never confirm themselves
	result, err := p.Confirm(context.Background(), intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)

	_, err = p.Refund(context.Background(), intent.ProviderRef, 100)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()

	happy := NewMockProvider(true)
	intent, err := happy.CreateIntent(ctx, IntentRequest{OrderID: 1, AmountCents: 100})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ProviderRef, "MOCK-"))

	result, err := happy.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	sad := NewMockProvider(false)
	result, err = sad.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestMockWebhook(t *testing.T) {
	p := NewMockProvider(true)
	ctx := context.Background()

	result, err := p.HandleWebhook(ctx, []byte(`{"ref":"MOCK-abc","status":"COMPLETED"}`), "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "MOCK-abc", result.ProviderRef)
	assert.Equal(t, StatusCompleted, result.Status)

	result, err = p.HandleWebhook(ctx, []byte(`{"status":"COMPLETED"}`), "")
	require.NoError(t, err)
	assert.False(t, result.Valid)

	result, err = p.HandleWebhook(ctx, []byte(`not json`), "")
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
