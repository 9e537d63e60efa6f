package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNFCSessionLifecycle(t *testing.T) {
	p := NewNFCProvider(5 * time.Minute)
	ctx := context.Background()

	intent, err := p.CreateIntent(ctx, IntentRequest{OrderID: 7, AmountCents: 1200})
	require.NoError(t, err)
	require.NotEmpty(t, intent.ProviderRef)
	assert.Equal(t, StatusPending, intent.Status)

	result, err := p.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)

	session, err := p.DetectCard(intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, NFCStateCardDetected, session.State)

	session, err = p.BeginProcessing(intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, NFCStateProcessing, session.State)

	result, err = p.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, result.Status)

	session, err = p.FinishProcessing(intent.ProviderRef, true)
	require.NoError(t, err)
	assert.Equal(t, NFCStateCompleted, session.State)

	result, err = p.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestNFCFailedTap(t *testing.T) {
	p := NewNFCProvider(5 * time.Minute)
	ctx := context.Background()

	intent, err := p.CreateIntent(ctx, IntentRequest{OrderID: 7, AmountCents: 1200})
	require.NoError(t, err)

	_, err = p.DetectCard(intent.ProviderRef)
	require.NoError(t, err)
	_, err = p.BeginProcessing(intent.ProviderRef)
	require.NoError(t, err)

	session, err := p.FinishProcessing(intent.ProviderRef, false)
	require.NoError(t, err)
	assert.Equal(t, NFCStateFailed, session.State)

	result, err := p.Confirm(ctx, intent.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestNFCBadTransitions(t *testing.T) {
	p := NewNFCProvider(5 * time.Minute)
	ctx := context.Background()

	intent, err := p.CreateIntent(ctx, IntentRequest{OrderID: 7, AmountCents: 1200})
	require.NoError(t, err)

	// cannot process before a card is detected
	_, err = p.BeginProcessing(intent.ProviderRef)
	assert.ErrorIs(t, err, ErrBadTransition)

	// cannot finish from WAITING either
	_, err = p.FinishProcessing(intent.ProviderRef, true)
	assert.ErrorIs(t, err, ErrBadTransition)

	_, err = p.DetectCard("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNFCSessionExpiry(t *testing.T) {
	p := NewNFCProvider(5 * time.Minute)
	ctx := context.Background()

	current := time.Now()
	p.now = func() time.Time { return current }

	intent, err := p.CreateIntent(ctx, IntentRequest{OrderID: 7, AmountCents: 1200})
	require.NoError(t, err)

	current = current.Add(6 * time.Minute)

	_, err = p.DetectCard(intent.ProviderRef)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// expired sessions are dropped on access
	_, err = p.GetSession(intent.ProviderRef)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNFCRefundUnsupported(t *testing.T) {
	p := NewNFCProvider(5 * time.Minute)

	_, err := p.Refund(context.Background(), "whatever", 100)
	assert.ErrorIs(t, err, ErrUnsupported)
}
