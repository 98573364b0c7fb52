package hosted

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/storefront/internal/payment"
	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/httpclient"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:    2 * time.Second,
		MaxRetries: 0,
	})
}

func sampleRequest() payment.CheckoutRequest {
	return payment.CheckoutRequest{
		Lines: []payment.CheckoutLine{
			{Name: "Canvas Tote", Price: 1999, Quantity: 2, Image: "tote.jpg"},
		},
		Email:           "shopper@example.com",
		ClientReference: "sess-1",
	}
}

func TestProvider_CreateCheckout_Success(t *testing.T) {
	var gotReq createSessionRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(createSessionResponse{
			ID:  "cs_test_123",
			URL: "https://pay.example.com/cs_test_123",
		})
	}))
	defer server.Close()

	p := NewProvider(Config{
		BaseURL:    server.URL,
		APIKey:     "sk_test",
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cart",
	}, newClient(), quietLogger())

	session, err := p.CreateCheckout(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_test_123", session.RedirectURL)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "shopper@example.com", gotReq.Email)
	assert.Equal(t, "sess-1", gotReq.ClientReference)
	assert.Equal(t, "https://shop.example.com/success", gotReq.SuccessURL)
	require.Len(t, gotReq.LineItems, 1)
	assert.Equal(t, int64(1999), gotReq.LineItems[0].Price)
}

func TestProvider_CreateCheckout_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"line_items required"}}`))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL}, newClient(), quietLogger())

	_, err := p.CreateCheckout(context.Background(), payment.CheckoutRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProvider_CreateCheckout_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL}, newClient(), quietLogger())

	_, err := p.CreateCheckout(context.Background(), sampleRequest())
	assert.Error(t, err)
}

func TestProvider_CreateCheckout_Unreachable(t *testing.T) {
	p := NewProvider(Config{BaseURL: "http://127.0.0.1:1"}, newClient(), quietLogger())

	_, err := p.CreateCheckout(context.Background(), sampleRequest())
	assert.Error(t, err)
}
