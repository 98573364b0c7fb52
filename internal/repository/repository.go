package repository

import (
	"context"
	"errors"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/pkg/pagination"
)

// ErrCorruptCart is returned by cart stores when a persisted cart cannot
// be decoded. Callers treat it as a signal to start the session over with
// an empty cart.
var ErrCorruptCart = errors.New("corrupt cart record")

// CartRepository persists carts keyed by session ID.
type CartRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// ProductRepository provides catalog product access.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter, params pagination.Params) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository provides category access.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// PageRepository provides content page access.
type PageRepository interface {
	Create(ctx context.Context, p *domain.Page) error
	GetBySlug(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context, publishedOnly bool) ([]domain.Page, error)
	Update(ctx context.Context, p *domain.Page) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository persists orders recorded from payment webhooks.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// SettingsRepository persists the single-row store settings.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, s *domain.Settings) error
}
