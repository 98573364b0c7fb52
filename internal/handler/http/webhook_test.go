package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/pagination"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/payment"
	"github.com/meridian-commerce/storefront/internal/service"
)

const webhookSecret = "whsec_test"

// --- Mock OrderRepository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, params pagination.Params) ([]domain.Order, int, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// --- Test Helpers ---

func testWebhookRouter(orders *mockOrderRepository, carts *mockCartRepository) *chi.Mux {
	svc := service.NewOrderService(orders, carts, testEventProducer(), staticPricing{}, testLogger())
	handler := NewWebhookHandler(svc, webhookSecret, testLogger())

	r := chi.NewRouter()
	r.Post("/api/v1/webhooks/payment", handler.HandlePaymentEvent)
	return r
}

func completedEventJSON(t *testing.T) []byte {
	t.Helper()
	event := map[string]any{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"id":                  "cs_123",
			"payment_intent":      "pi_456",
			"client_reference_id": "sess-1",
			"customer_email":      "shopper@example.com",
		},
	}
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func signedRequest(body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, payment.EncodeSignatureHeader(webhookSecret, time.Now(), body))
	return req
}

func paidOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:     "550e8400-e29b-41d4-a716-446655440001",
		Email:  "shopper@example.com",
		Status: domain.OrderStatusPaid,
		Items: []domain.OrderItem{
			{ID: "550e8400-e29b-41d4-a716-446655440010", Name: "Canvas Tote", Price: 1999, Quantity: 2},
		},
		Subtotal:          3998,
		Shipping:          999,
		Tax:               240,
		Total:             5237,
		CheckoutSessionID: "cs_123",
		PaymentIntentID:   "pi_456",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ============================================================================
// POST /api/v1/webhooks/payment
// ============================================================================

func TestHandlePaymentEvent_CompletedCheckout(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	orders.On("GetByCheckoutSession", mock.Anything, "cs_123").Return(nil, apperrors.ErrNotFound)
	carts.On("Get", mock.Anything, "sess-1").Return(cartWithItem("sess-1"), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "sess-1").Return(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(completedEventJSON(t)))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "paid", data["status"])
	assert.Equal(t, "cs_123", data["checkout_session_id"])
	assert.Equal(t, float64(5237), data["total"])

	orders.AssertExpectations(t)
	carts.AssertExpectations(t)
}

func TestHandlePaymentEvent_MissingSignature(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(completedEventJSON(t)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_SIGNATURE", resp.Error.Code)
	orders.AssertNotCalled(t, "Create")
}

func TestHandlePaymentEvent_TamperedBody(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	body := completedEventJSON(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(append(body, ' ')))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, payment.EncodeSignatureHeader(webhookSecret, time.Now(), body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orders.AssertNotCalled(t, "Create")
}

func TestHandlePaymentEvent_ReplayedDelivery(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	body := completedEventJSON(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, payment.EncodeSignatureHeader(webhookSecret, time.Now().Add(-time.Hour), body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_SIGNATURE", resp.Error.Code)
	orders.AssertNotCalled(t, "Create")
}

func TestHandlePaymentEvent_DuplicateDelivery(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	orders.On("GetByCheckoutSession", mock.Anything, "cs_123").Return(paidOrder(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(completedEventJSON(t)))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	orders.AssertNotCalled(t, "Create")
	carts.AssertNotCalled(t, "Get")
}

func TestHandlePaymentEvent_IgnoresOtherEvents(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	body, _ := json.Marshal(map[string]any{
		"id":   "evt_2",
		"type": "payment_intent.created",
		"data": map[string]any{"id": "pi_789"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["received"])
	orders.AssertNotCalled(t, "GetByCheckoutSession")
}

func TestHandlePaymentEvent_MissingReference(t *testing.T) {
	orders := new(mockOrderRepository)
	carts := new(mockCartRepository)
	router := testWebhookRouter(orders, carts)

	body, _ := json.Marshal(map[string]any{
		"id":   "evt_3",
		"type": "checkout.session.completed",
		"data": map[string]any{"id": "cs_123"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}
