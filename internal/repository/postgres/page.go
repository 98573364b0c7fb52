package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/pkg/database"
	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
)

// PageRepository implements repository.PageRepository using PostgreSQL.
type PageRepository struct {
	pool database.DBTX
}

// NewPageRepository creates a new PostgreSQL-backed page repository.
func NewPageRepository(pool database.DBTX) *PageRepository {
	return &PageRepository{pool: pool}
}

// Create inserts a new content page into the database.
func (r *PageRepository) Create(ctx context.Context, p *domain.Page) error {
	query := `
		INSERT INTO pages (id, slug, title, content, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Slug, p.Title, p.Content, p.Published, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("page", "slug", p.Slug)
		}
		return fmt.Errorf("insert page: %w", err)
	}

	return nil
}

// GetBySlug retrieves a page by its slug.
func (r *PageRepository) GetBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	query := `
		SELECT id, slug, title, content, published, created_at, updated_at
		FROM pages
		WHERE slug = $1`

	var p domain.Page
	err := r.pool.QueryRow(ctx, query, slug).Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan page: %w", err)
	}

	return &p, nil
}

// List returns pages, optionally restricted to published ones.
func (r *PageRepository) List(ctx context.Context, publishedOnly bool) ([]domain.Page, error) {
	query := `
		SELECT id, slug, title, content, published, created_at, updated_at
		FROM pages`
	if publishedOnly {
		query += `
		WHERE published = true`
	}
	query += `
		ORDER BY title ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page row: %w", err)
		}
		pages = append(pages, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page rows: %w", err)
	}

	if pages == nil {
		pages = []domain.Page{}
	}

	return pages, nil
}

// Update modifies an existing page.
func (r *PageRepository) Update(ctx context.Context, p *domain.Page) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE pages
		SET slug = $1, title = $2, content = $3, published = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query, p.Slug, p.Title, p.Content, p.Published, p.UpdatedAt, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("page", "slug", p.Slug)
		}
		return fmt.Errorf("update page: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("page", p.ID)
	}

	return nil
}

// Delete removes a page from the database by its ID.
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM pages WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("page", id)
	}

	return nil
}
