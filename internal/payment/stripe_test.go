package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStripeStatus(t *testing.T) {
	cases := map[string]Status{
		"succeeded":               StatusCompleted,
		"processing":              StatusProcessing,
		"requires_action":         StatusRequiresAction,
		"requires_payment_method": StatusPending,
		"requires_confirmation":   StatusPending,
		"requires_capture":        StatusPending,
		"canceled":                StatusCancelled,
		"whatever_new":            StatusPending,
		"":                        StatusPending,
	}

	for input, expected := range cases {
		assert.Equal(t, expected, StripeStatus(input), "status %q", input)
	}
}

func TestStripeCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2500", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[order_id]"))

		fmt.Fprint(w, `{"id":"pi_123","status":"requires_payment_method","client_secret":"pi_123_secret"}`)
	}))
	defer srv.Close()

	p := NewStripeProvider("sk_test", "whsec", zap.NewNop())
	p.baseURL = srv.URL

	intent, err := p.CreateIntent(context.Background(), IntentRequest{
		OrderID:     42,
		AmountCents: 2500,
		Currency:    "USD",
		Description: "Order #42",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ProviderRef)
	assert.Equal(t, StatusPending, intent.Status)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
}

func TestStripeConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		fmt.Fprint(w, `{"id":"pi_123","status":"succeeded"}`)
	}))
	defer srv.Close()

	p := NewStripeProvider("sk_test", "whsec", zap.NewNop())
	p.baseURL = srv.URL

	result, err := p.Confirm(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
}

func stripeSign(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStripeWebhook(t *testing.T) {
	p := NewStripeProvider("sk_test", "whsec", zap.NewNop())

	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded"}}}`)
	signature := fmt.Sprintf("t=1700000000,v1=%s", stripeSign("whsec", "1700000000", payload))

	result, err := p.HandleWebhook(context.Background(), payload, signature)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "pi_123", result.ProviderRef)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestStripeWebhookRejections(t *testing.T) {
	p := NewStripeProvider("sk_test", "whsec", zap.NewNop())

	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded"}}}`)

	// tampered signature
	result, err := p.HandleWebhook(context.Background(), payload, "t=1700000000,v1=deadbeef")
	require.NoError(t, err)
	assert.False(t, result.Valid)

	// non payment_intent event, correctly signed
	other := []byte(`{"type":"charge.refunded","data":{"object":{"id":"ch_1","status":"succeeded"}}}`)
	signature := fmt.Sprintf("t=1700000000,v1=%s", stripeSign("whsec", "1700000000", other))
	result, err = p.HandleWebhook(context.Background(), other, signature)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
