package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/slug"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// CreatePageInput holds the parameters for creating a content page.
type CreatePageInput struct {
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// UpdatePageInput holds the parameters for updating a page. Nil fields are
// left unchanged.
type UpdatePageInput struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

// PageService implements the business logic for content pages.
type PageService struct {
	pages  repository.PageRepository
	logger *slog.Logger
}

// NewPageService creates a new page service.
func NewPageService(pages repository.PageRepository, logger *slog.Logger) *PageService {
	return &PageService{
		pages:  pages,
		logger: logger,
	}
}

// CreatePage creates a page with a slug derived from its title.
func (s *PageService) CreatePage(ctx context.Context, input CreatePageInput) (*domain.Page, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	now := time.Now().UTC()
	p := &domain.Page{
		ID:        uuid.New().String(),
		Slug:      slug.Generate(input.Title),
		Title:     input.Title,
		Content:   input.Content,
		Published: input.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.pages.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	s.logger.InfoContext(ctx, "page created",
		slog.String("page_id", p.ID),
		slog.String("slug", p.Slug),
	)

	return p, nil
}

// GetPublishedPage retrieves a published page by slug for the storefront.
func (s *PageService) GetPublishedPage(ctx context.Context, pageSlug string) (*domain.Page, error) {
	p, err := s.pages.GetBySlug(ctx, pageSlug)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	if !p.Published {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

// GetPage retrieves a page by slug regardless of publication state.
func (s *PageService) GetPage(ctx context.Context, pageSlug string) (*domain.Page, error) {
	p, err := s.pages.GetBySlug(ctx, pageSlug)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// ListPages returns pages, optionally only published ones.
func (s *PageService) ListPages(ctx context.Context, publishedOnly bool) ([]domain.Page, error) {
	pages, err := s.pages.List(ctx, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

// UpdatePage applies a partial update to a page. A title change
// regenerates the slug.
func (s *PageService) UpdatePage(ctx context.Context, id string, input UpdatePageInput) (*domain.Page, error) {
	p, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		p.Title = *input.Title
		p.Slug = slug.Generate(*input.Title)
	}
	if input.Content != nil {
		p.Content = *input.Content
	}
	if input.Published != nil {
		p.Published = *input.Published
	}

	if err := s.pages.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}

	s.logger.InfoContext(ctx, "page updated",
		slog.String("page_id", p.ID),
	)

	return p, nil
}

// DeletePage removes a page.
func (s *PageService) DeletePage(ctx context.Context, id string) error {
	if err := s.pages.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	s.logger.InfoContext(ctx, "page deleted",
		slog.String("page_id", id),
	)

	return nil
}

// getByID scans the page list for an ID. Pages are few, so a list scan
// keeps the repository surface small.
func (s *PageService) getByID(ctx context.Context, id string) (*domain.Page, error) {
	pages, err := s.pages.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	for i := range pages {
		if pages[i].ID == id {
			return &pages[i], nil
		}
	}
	return nil, apperrors.NotFound("page", id)
}
