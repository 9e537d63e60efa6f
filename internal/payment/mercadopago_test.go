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

func TestMercadoPagoStatus(t *testing.T) {
	cases := map[string]Status{
		"approved":     StatusCompleted,
		"in_process":   StatusProcessing,
		"in_mediation": StatusProcessing,
		"pending":      StatusPending,
		"authorized":   StatusPending,
		"rejected":     StatusFailed,
		"cancelled":    StatusCancelled,
		"refunded":     StatusRefunded,
		"charged_back": StatusRefunded,
		"some_future":  StatusPending,
		"":             StatusPending,
	}

	for input, expected := range cases {
		assert.Equal(t, expected, MercadoPagoStatus(input), "status %q", input)
	}
}

func TestMercadoPagoCreateIntentNotConfigured(t *testing.T) {
	p := NewMercadoPagoProvider("", "secret", zap.NewNop())

	_, err := p.CreateIntent(context.Background(), IntentRequest{OrderID: 1, AmountCents: 500})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMercadoPagoCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"pref-123","init_point":"https://mp.example/checkout/pref-123"}`)
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider("test-token", "secret", zap.NewNop())
	p.baseURL = srv.URL

	intent, err := p.CreateIntent(context.Background(), IntentRequest{
		OrderID:     42,
		AmountCents: 1500,
		Currency:    "ARS",
		Description: "Order #42",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", intent.ProviderRef)
	assert.Equal(t, StatusPending, intent.Status)
	assert.Equal(t, "https://mp.example/checkout/pref-123", intent.CheckoutURL)
}

func TestMercadoPagoConfirmUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider("test-token", "secret", zap.NewNop())
	p.baseURL = srv.URL

	_, err := p.Confirm(context.Background(), "12345")
	assert.ErrorIs(t, err, ErrUpstream)
}

func mpSign(secret, dataID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;ts:%s;", dataID, ts)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestMercadoPagoWebhook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/555", r.URL.Path)
		fmt.Fprint(w, `{"id":555,"status":"approved"}`)
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider("test-token", "whsec", zap.NewNop())
	p.baseURL = srv.URL

	payload := []byte(`{"type":"payment","data":{"id":"555"}}`)
	signature := fmt.Sprintf("ts=1700000000,v1=%s", mpSign("whsec", "555", "1700000000"))

	result, err := p.HandleWebhook(context.Background(), payload, signature)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "555", result.ProviderRef)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestMercadoPagoWebhookBadSignature(t *testing.T) {
	p := NewMercadoPagoProvider("test-token", "whsec", zap.NewNop())

	payload := []byte(`{"type":"payment","data":{"id":"555"}}`)

	result, err := p.HandleWebhook(context.Background(), payload, "ts=1700000000,v1=deadbeef")
	require.NoError(t, err)
	assert.False(t, result.Valid)

	result, err = p.HandleWebhook(context.Background(), payload, "")
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestMercadoPagoWebhookWrongType(t *testing.T) {
	p := NewMercadoPagoProvider("test-token", "whsec", zap.NewNop())

	payload := []byte(`{"type":"plan","data":{"id":"555"}}`)
	signature := fmt.Sprintf("ts=1700000000,v1=%s", mpSign("whsec", "555", "1700000000"))

	result, err := p.HandleWebhook(context.Background(), payload, signature)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestParseSignatureHeader(t *testing.T) {
	ts, v1 := parseSignatureHeader("ts=123, v1=abc")
	assert.Equal(t, "123", ts)
	assert.Equal(t, "abc", v1)

	ts, v1 = parseSignatureHeader("t=456,v1=def")
	assert.Equal(t, "456", ts)
	assert.Equal(t, "def", v1)

	ts, v1 = parseSignatureHeader("garbage")
	assert.Empty(t, ts)
	assert.Empty(t, v1)
}
