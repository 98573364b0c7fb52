package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	pkgkafka "github.com/meridian-commerce/storefront/pkg/kafka"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/event"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// staticPricing fixes the shipping and tax policies for tests.
type staticPricing struct {
	shipping domain.ShippingPolicy
	tax      domain.TaxPolicy
}

func (p staticPricing) Policies(context.Context) (domain.ShippingPolicy, domain.TaxPolicy) {
	return p.shipping, p.tax
}

func standardPricing() staticPricing {
	return staticPricing{shipping: domain.StandardShipping, tax: domain.StandardTax}
}

func newTestCartService(repo *mockCartRepository) *CartService {
	logger := newTestLogger()
	// Kafka producer with no broker behind it; publish failures are logged
	// and swallowed, which is the production behavior as well.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCartService(repo, producer, standardPricing(), logger)
}

func cartWithItem(sessionID string) *domain.Cart {
	cart := domain.NewCart(sessionID)
	cart.AddItem("prod-1", "var-1", "Canvas Tote", "", 1999, "tote.jpg", 2)
	return cart
}

func validAddInput() AddItemInput {
	return AddItemInput{
		ProductID: "prod-1",
		VariantID: "var-1",
		Name:      "Canvas Tote",
		Slug:      "canvas-tote",
		Price:     1999,
		Image:     "tote.jpg",
		Quantity:  2,
	}
}

// --- GetCart ---

func TestCartService_GetCart_Existing(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(cartWithItem("sess-1"), nil)

	view, err := svc.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, int64(3998), view.Totals.Subtotal)
	assert.Equal(t, int64(999), view.Totals.Shipping)
	repo.AssertExpectations(t)
}

func TestCartService_GetCart_MissingReturnsEmpty(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-new").Return(nil, apperrors.ErrNotFound)

	view, err := svc.GetCart(context.Background(), "sess-new")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Totals.Subtotal)
	repo.AssertExpectations(t)
}

func TestCartService_GetCart_CorruptResets(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-bad").Return(nil, repository.ErrCorruptCart)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.GetCart(context.Background(), "sess-bad")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	repo.AssertExpectations(t)
}

func TestCartService_GetCart_NoSession(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	_, err := svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_GetCart_StorageError(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(nil, errors.New("redis down"))

	_, err := svc.GetCart(context.Background(), "sess-1")
	assert.Error(t, err)
}

// --- AddItem ---

func TestCartService_AddItem_NewLine(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(nil, apperrors.ErrNotFound)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.AddItem(context.Background(), "sess-1", validAddInput())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "prod-1-var-1-1", view.Items[0].ID)
	assert.Equal(t, "canvas-tote", view.Items[0].Slug)
	assert.Equal(t, 2, view.Items[0].Quantity)
	repo.AssertExpectations(t)
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(cartWithItem("sess-1"), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	input := validAddInput()
	input.Price = 2999 // price change is ignored on merge
	input.Quantity = 3

	view, err := svc.AddItem(context.Background(), "sess-1", input)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, int64(1999), view.Items[0].Price)
	repo.AssertExpectations(t)
}

func TestCartService_AddItem_SaveFailureStillSucceeds(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(nil, apperrors.ErrNotFound)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	view, err := svc.AddItem(context.Background(), "sess-1", validAddInput())
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	repo.AssertExpectations(t)
}

func TestCartService_AddItem_Validation(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	tests := []struct {
		name   string
		mutate func(*AddItemInput)
	}{
		{"missing product id", func(in *AddItemInput) { in.ProductID = "" }},
		{"missing name", func(in *AddItemInput) { in.Name = "" }},
		{"zero quantity", func(in *AddItemInput) { in.Quantity = 0 }},
		{"negative price", func(in *AddItemInput) { in.Price = -1 }},
		{"excessive quantity", func(in *AddItemInput) { in.Quantity = MaxQuantityPerItem + 1 }},
		{"excessive price", func(in *AddItemInput) { in.Price = MaxPriceCents + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validAddInput()
			tt.mutate(&input)
			_, err := svc.AddItem(context.Background(), "sess-1", input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCartService_AddItem_TooManyLines(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	full := domain.NewCart("sess-1")
	for i := 0; i < MaxItemsPerCart; i++ {
		full.AddItem("prod", string(rune('a'+i%26))+string(rune('a'+i/26)), "Item", "", 100, "", 1)
	}
	repo.On("Get", mock.Anything, "sess-1").Return(full, nil)

	input := validAddInput()
	input.ProductID = "prod-new"

	_, err := svc.AddItem(context.Background(), "sess-1", input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- UpdateItemQuantity ---

func TestCartService_UpdateItemQuantity_Success(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	cart := cartWithItem("sess-1")
	itemID := cart.Items[0].ID
	repo.On("Get", mock.Anything, "sess-1").Return(cart, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.UpdateItemQuantity(context.Background(), "sess-1", itemID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Items[0].Quantity)
	repo.AssertExpectations(t)
}

func TestCartService_UpdateItemQuantity_ZeroRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	cart := cartWithItem("sess-1")
	itemID := cart.Items[0].ID
	repo.On("Get", mock.Anything, "sess-1").Return(cart, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.UpdateItemQuantity(context.Background(), "sess-1", itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	repo.AssertExpectations(t)
}

func TestCartService_UpdateItemQuantity_UnknownItemIsNoop(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	cart := cartWithItem("sess-1")
	before := cart.Items[0]
	repo.On("Get", mock.Anything, "sess-1").Return(cart, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.UpdateItemQuantity(context.Background(), "sess-1", "no-such-item", 5)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, before, view.Items[0])
}

// --- RemoveItem ---

func TestCartService_RemoveItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	cart := cartWithItem("sess-1")
	itemID := cart.Items[0].ID
	repo.On("Get", mock.Anything, "sess-1").Return(cart, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.RemoveItem(context.Background(), "sess-1", itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	repo.AssertExpectations(t)
}

func TestCartService_RemoveItem_AbsentIsNoop(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	repo.On("Get", mock.Anything, "sess-1").Return(cartWithItem("sess-1"), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.RemoveItem(context.Background(), "sess-1", "no-such-item")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	repo.AssertExpectations(t)
}

// --- ClearCart ---

func TestCartService_ClearCart_PreservesSequence(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo)

	cart := cartWithItem("sess-1")
	seqBefore := cart.NextSeq
	repo.On("Get", mock.Anything, "sess-1").Return(cart, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.ClearCart(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, seqBefore, view.NextSeq)
	repo.AssertExpectations(t)
}
