package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-commerce/storefront/pkg/health"
	"github.com/meridian-commerce/storefront/pkg/middleware"

	"github.com/meridian-commerce/storefront/internal/auth"
	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/payment"
	"github.com/meridian-commerce/storefront/internal/service"
)

// --- Mock PageRepository ---

type mockPageRepository struct {
	mock.Mock
}

func (m *mockPageRepository) Create(ctx context.Context, p *domain.Page) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPageRepository) GetBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func (m *mockPageRepository) List(ctx context.Context, publishedOnly bool) ([]domain.Page, error) {
	args := m.Called(ctx, publishedOnly)
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *mockPageRepository) Update(ctx context.Context, p *domain.Page) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock SettingsRepository ---

type mockSettingsRepository struct {
	mock.Mock
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settings), args.Error(1)
}

func (m *mockSettingsRepository) Save(ctx context.Context, s *domain.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// --- Mock CheckoutProvider ---

type mockCheckoutProvider struct {
	mock.Mock
}

func (m *mockCheckoutProvider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

// --- Router Fixture ---

type routerFixture struct {
	carts      *mockCartRepository
	products   *mockProductRepository
	categories *mockCategoryRepository
	pages      *mockPageRepository
	orders     *mockOrderRepository
	settings   *mockSettingsRepository
	provider   *mockCheckoutProvider
	jwt        *auth.JWTManager
	router     http.Handler
}

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery staple"
)

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		carts:      new(mockCartRepository),
		products:   new(mockProductRepository),
		categories: new(mockCategoryRepository),
		pages:      new(mockPageRepository),
		orders:     new(mockOrderRepository),
		settings:   new(mockSettingsRepository),
		provider:   new(mockCheckoutProvider),
	}

	logger := testLogger()
	producer := testEventProducer()
	f.jwt = auth.NewJWTManager("test-secret", time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	catalog := service.NewCatalogService(f.products, f.categories, logger)

	f.router = NewRouter(RouterConfig{
		Cart:     service.NewCartService(f.carts, producer, staticPricing{}, logger),
		Checkout: service.NewCheckoutService(f.carts, f.provider, staticPricing{}, logger),
		Catalog:  catalog,
		Pages:    service.NewPageService(f.pages, logger),
		Orders:   service.NewOrderService(f.orders, f.carts, producer, staticPricing{}, logger),
		Settings: service.NewSettingsService(f.settings, logger),
		Auth:     service.NewAuthService(f.jwt, testAdminEmail, string(hash), logger),

		JWT:    f.jwt,
		Health: health.NewHandler(),
		Logger: logger,

		WebhookSecret:  webhookSecret,
		CORS:           middleware.DefaultCORSConfig(),
		RateLimitRPS:   100,
		RateLimitBurst: 200,
	})
	return f
}

func (f *routerFixture) adminToken(t *testing.T) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(testAdminEmail, "admin")
	require.NoError(t, err)
	return token
}

// ============================================================================
// Route wiring
// ============================================================================

func TestRouter_HealthEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_PublicCatalogHasCacheControl(t *testing.T) {
	f := newRouterFixture(t)

	f.settings.On("Get", mock.Anything).Return(&domain.Settings{StoreName: "Meridian", Currency: "usd"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.orders.AssertNotCalled(t, "List")
}

func TestRouter_AdminRejectsNonAdminRole(t *testing.T) {
	f := newRouterFixture(t)

	token, err := f.jwt.GenerateToken("shopper@example.com", "customer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_LoginThenAccessAdmin(t *testing.T) {
	f := newRouterFixture(t)

	body, _ := json.Marshal(service.LoginInput{Email: testAdminEmail, Password: testAdminPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	token := resp.Data.(map[string]interface{})["token"].(string)
	require.NotEmpty(t, token)

	f.orders.On("List", mock.Anything, mock.Anything).Return([]domain.Order{}, 0, nil)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.orders.AssertExpectations(t)
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	f := newRouterFixture(t)

	body, _ := json.Marshal(service.LoginInput{Email: testAdminEmail, Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CheckoutFlow(t *testing.T) {
	f := newRouterFixture(t)

	f.carts.On("Get", mock.Anything, "sess-1").Return(cartWithItem("sess-1"), nil)
	f.provider.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(&payment.CheckoutSession{SessionID: "cs_1", RedirectURL: "https://pay.example.com/cs_1"}, nil)

	body, _ := json.Marshal(service.CheckoutInput{Email: "shopper@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	assert.Equal(t, "https://pay.example.com/cs_1", resp.Data.(map[string]interface{})["redirect_url"])
}

func TestRouter_PublishedPage(t *testing.T) {
	f := newRouterFixture(t)

	f.pages.On("GetBySlug", mock.Anything, "about").Return(&domain.Page{
		ID:        "550e8400-e29b-41d4-a716-446655440050",
		Slug:      "about",
		Title:     "About",
		Published: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/about", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SettingsUpdateRequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)

	f.settings.On("Get", mock.Anything).Return(&domain.Settings{StoreName: "Meridian", Currency: "usd"}, nil)
	f.settings.On("Save", mock.Anything, mock.AnythingOfType("*domain.Settings")).Return(nil)

	name := "Meridian Supply Co."
	body, _ := json.Marshal(service.UpdateSettingsInput{StoreName: &name})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.adminToken(t))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Meridian Supply Co.", resp.Data.(map[string]interface{})["store_name"])
}
