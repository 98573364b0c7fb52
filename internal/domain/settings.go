package domain

import "time"

// Settings holds the single-row store configuration edited from the admin
// panel. The pricing fields are the source of the shipping and tax policies
// applied to every cart.
type Settings struct {
	StoreName        string    `json:"store_name"`
	Tagline          string    `json:"tagline,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	Currency         string    `json:"currency"`
	FreeShippingOver int64     `json:"free_shipping_over"`
	ShippingFee      int64     `json:"shipping_fee"`
	TaxRateBps       int64     `json:"tax_rate_bps"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings used before the admin has saved any.
func DefaultSettings() Settings {
	return Settings{
		StoreName:        "Meridian",
		Currency:         "usd",
		FreeShippingOver: StandardShipping.FreeOver,
		ShippingFee:      StandardShipping.Fee,
		TaxRateBps:       StandardTax.Bps,
	}
}

// ShippingPolicy derives the cart shipping policy from the stored settings.
func (s *Settings) ShippingPolicy() ShippingPolicy {
	return ThresholdShipping{FreeOver: s.FreeShippingOver, Fee: s.ShippingFee}
}

// TaxPolicy derives the cart tax policy from the stored settings.
func (s *Settings) TaxPolicy() TaxPolicy {
	return BasisPointsTax{Bps: s.TaxRateBps}
}
