package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// UpdateSettingsInput holds the parameters for updating store settings.
// Nil fields are left unchanged.
type UpdateSettingsInput struct {
	StoreName        *string `json:"store_name"`
	Tagline          *string `json:"tagline"`
	ContactEmail     *string `json:"contact_email"`
	Currency         *string `json:"currency"`
	FreeShippingOver *int64  `json:"free_shipping_over"`
	ShippingFee      *int64  `json:"shipping_fee"`
	TaxRateBps       *int64  `json:"tax_rate_bps"`
}

// PricingSource supplies the shipping and tax policies applied to carts.
type PricingSource interface {
	Policies(ctx context.Context) (domain.ShippingPolicy, domain.TaxPolicy)
}

// SettingsService manages the store's settings.
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(settings repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		logger:   logger,
	}
}

// GetSettings returns the store settings.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies a partial update to the store settings.
func (s *SettingsService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings for update: %w", err)
	}

	if input.StoreName != nil {
		if *input.StoreName == "" {
			return nil, apperrors.InvalidInput("store name must not be empty")
		}
		settings.StoreName = *input.StoreName
	}
	if input.Tagline != nil {
		settings.Tagline = *input.Tagline
	}
	if input.ContactEmail != nil {
		settings.ContactEmail = *input.ContactEmail
	}
	if input.Currency != nil {
		if len(*input.Currency) != 3 {
			return nil, apperrors.InvalidInput("currency must be a 3-letter code")
		}
		settings.Currency = *input.Currency
	}
	if input.FreeShippingOver != nil {
		if *input.FreeShippingOver < 0 {
			return nil, apperrors.InvalidInput("free shipping threshold must not be negative")
		}
		settings.FreeShippingOver = *input.FreeShippingOver
	}
	if input.ShippingFee != nil {
		if *input.ShippingFee < 0 {
			return nil, apperrors.InvalidInput("shipping fee must not be negative")
		}
		settings.ShippingFee = *input.ShippingFee
	}
	if input.TaxRateBps != nil {
		if *input.TaxRateBps < 0 || *input.TaxRateBps > 10000 {
			return nil, apperrors.InvalidInput("tax rate must be between 0 and 10000 basis points")
		}
		settings.TaxRateBps = *input.TaxRateBps
	}

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.InfoContext(ctx, "settings updated",
		slog.String("store_name", settings.StoreName),
	)

	return settings, nil
}

// Policies returns the shipping and tax policies derived from the stored
// settings. When settings cannot be loaded, carts still need pricing, so
// the defaults apply.
func (s *SettingsService) Policies(ctx context.Context) (domain.ShippingPolicy, domain.TaxPolicy) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load settings for pricing, using defaults",
			slog.String("error", err.Error()),
		)
		defaults := domain.DefaultSettings()
		return defaults.ShippingPolicy(), defaults.TaxPolicy()
	}
	return settings.ShippingPolicy(), settings.TaxPolicy()
}
