package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/pkg/database"
)

// SettingsRepository implements repository.SettingsRepository using
// PostgreSQL. Settings live in a single row keyed by a fixed ID.
type SettingsRepository struct {
	pool database.DBTX
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(pool database.DBTX) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

const settingsRowID = 1

// Get returns the store settings, falling back to defaults when the row
// has never been written.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT store_name, tagline, contact_email, currency,
		       free_shipping_over, shipping_fee, tax_rate_bps, updated_at
		FROM settings
		WHERE id = $1`

	var s domain.Settings
	err := r.pool.QueryRow(ctx, query, settingsRowID).Scan(
		&s.StoreName,
		&s.Tagline,
		&s.ContactEmail,
		&s.Currency,
		&s.FreeShippingOver,
		&s.ShippingFee,
		&s.TaxRateBps,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := domain.DefaultSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	return &s, nil
}

// Save upserts the settings row.
func (r *SettingsRepository) Save(ctx context.Context, s *domain.Settings) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO settings (id, store_name, tagline, contact_email, currency,
		                      free_shipping_over, shipping_fee, tax_rate_bps, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET store_name = EXCLUDED.store_name,
		    tagline = EXCLUDED.tagline,
		    contact_email = EXCLUDED.contact_email,
		    currency = EXCLUDED.currency,
		    free_shipping_over = EXCLUDED.free_shipping_over,
		    shipping_fee = EXCLUDED.shipping_fee,
		    tax_rate_bps = EXCLUDED.tax_rate_bps,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		settingsRowID,
		s.StoreName,
		s.Tagline,
		s.ContactEmail,
		s.Currency,
		s.FreeShippingOver,
		s.ShippingFee,
		s.TaxRateBps,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}
