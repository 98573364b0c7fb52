package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/event"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines allowed in a cart.
	MaxItemsPerCart = 50
	// MaxPriceCents is the maximum price in cents (100,000.00) allowed per item.
	MaxPriceCents = 100_000_00
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name" validate:"required"`
	Slug      string `json:"slug"`
	Price     int64  `json:"price" validate:"gte=0"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityInput holds the parameters for updating a line quantity.
// Quantity carries no validation tag: zero and negative values are
// meaningful and remove the line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CartView is a cart together with its derived totals.
type CartView struct {
	*domain.Cart
	Totals domain.Totals `json:"totals"`
}

// CartService implements the business logic for cart operations. The cart
// loaded into memory is authoritative for the request: persistence failures
// are logged and the mutation still succeeds.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	pricing  PricingSource
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, pricing PricingSource, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		pricing:  pricing,
		logger:   logger,
	}
}

// GetCart retrieves the cart for a session. If no cart exists, or the
// stored record cannot be decoded, an empty cart is returned.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}

	cart, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, cart), nil
}

// AddItem adds an item to the session's cart. Adding an existing
// (product, variant) identity merges into the existing line.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if input.Price > MaxPriceCents {
		return nil, apperrors.InvalidInput(fmt.Sprintf("price must not exceed %d cents", MaxPriceCents))
	}

	cart, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merges := false
	for _, item := range cart.Items {
		if item.ProductID == input.ProductID && item.VariantID == input.VariantID {
			merges = true
			break
		}
	}
	if !merges && len(cart.Items) >= MaxItemsPerCart {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}

	line := cart.AddItem(input.ProductID, input.VariantID, input.Name, input.Slug, input.Price, input.Image, input.Quantity)
	if line.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
	}

	s.persist(ctx, cart)
	s.publishUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.String("item_id", line.ID),
		slog.Int("quantity", input.Quantity),
	)

	return s.view(ctx, cart), nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity below 1
// removes the line. Updating an unknown line is a no-op, matching
// RemoveItem.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.UpdateQuantity(itemID, quantity)

	s.persist(ctx, cart)
	s.publishUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)

	return s.view(ctx, cart), nil
}

// RemoveItem removes a line from the cart. Removing an absent line is a
// no-op, so repeated removals are safe.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}

	cart, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(itemID)

	s.persist(ctx, cart)
	s.publishUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("item_id", itemID),
	)

	return s.view(ctx, cart), nil
}

// ClearCart removes all lines from the session's cart. The line ID
// sequence is retained so cleared carts never reuse IDs.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}

	cart, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Clear()

	s.persist(ctx, cart)

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
	)

	return s.view(ctx, cart), nil
}

// loadOrCreate retrieves the cart for a session, creating an empty one if
// none exists. A corrupt stored record is discarded and replaced with an
// empty cart rather than failing the request.
func (s *CartService) loadOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(sessionID), nil
		}
		if errors.Is(err, repository.ErrCorruptCart) {
			s.logger.WarnContext(ctx, "discarding corrupt cart record",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			cart := domain.NewCart(sessionID)
			s.persist(ctx, cart)
			return cart, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// persist saves the cart best-effort. A storage failure is logged and the
// request proceeds with the in-memory cart.
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) {
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to save cart",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) view(ctx context.Context, cart *domain.Cart) *CartView {
	shipping, tax := s.pricing.Policies(ctx)
	return &CartView{
		Cart:   cart,
		Totals: cart.Totals(shipping, tax),
	}
}
