package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/pagination"
	"github.com/meridian-commerce/storefront/pkg/slug"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description"`
	Price          int64    `json:"price" validate:"gte=0"`
	CompareAtPrice *int64   `json:"compare_at_price"`
	Inventory      int      `json:"inventory" validate:"gte=0"`
	Images         []string `json:"images"`
	Published      bool     `json:"published"`
	Featured       bool     `json:"featured"`
	CategoryID     *string  `json:"category_id"`
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged.
type UpdateProductInput struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Price          *int64    `json:"price"`
	CompareAtPrice *int64    `json:"compare_at_price"`
	Inventory      *int      `json:"inventory"`
	Images         *[]string `json:"images"`
	Published      *bool     `json:"published"`
	Featured       *bool     `json:"featured"`
	CategoryID     *string   `json:"category_id"`
}

// CreateCategoryInput holds the parameters for creating a category.
type CreateCategoryInput struct {
	Name string `json:"name" validate:"required"`
}

// CatalogService implements the business logic for products and categories.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// CreateProduct creates a product with a slug derived from its name.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Inventory < 0 {
		return nil, apperrors.InvalidInput("inventory must not be negative")
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Slug:           slug.Generate(input.Name),
		Description:    input.Description,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		Inventory:      input.Inventory,
		Images:         input.Images,
		Published:      input.Published,
		Featured:       input.Featured,
		CategoryID:     input.CategoryID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
	)

	return p, nil
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetProductBySlug retrieves a published product by slug for the storefront.
func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	p, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	if !p.Published {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

// ListProducts returns products matching the filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, params pagination.Params) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies a partial update to a product. A name change
// regenerates the slug.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		p.Name = *input.Name
		p.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		p.Price = *input.Price
	}
	if input.CompareAtPrice != nil {
		p.CompareAtPrice = input.CompareAtPrice
	}
	if input.Inventory != nil {
		if *input.Inventory < 0 {
			return nil, apperrors.InvalidInput("inventory must not be negative")
		}
		p.Inventory = *input.Inventory
	}
	if input.Images != nil {
		p.Images = *input.Images
	}
	if input.Published != nil {
		p.Published = *input.Published
	}
	if input.Featured != nil {
		p.Featured = *input.Featured
	}
	if input.CategoryID != nil {
		p.CategoryID = input.CategoryID
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", p.ID),
	)

	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

// CreateCategory creates a category with a slug derived from its name.
func (s *CatalogService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	c := &domain.Category{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      slug.Generate(input.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", c.ID),
		slog.String("slug", c.Slug),
	)

	return c, nil
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "category deleted",
		slog.String("category_id", id),
	)

	return nil
}
