package domain

// ShippingPolicy computes the shipping fee for a cart subtotal, in cents.
type ShippingPolicy interface {
	ShippingFee(subtotal int64) int64
}

// TaxPolicy computes the tax for a cart subtotal, in cents.
type TaxPolicy interface {
	Tax(subtotal int64) int64
}

// ThresholdShipping charges a flat fee unless the subtotal strictly exceeds
// the free-shipping threshold.
type ThresholdShipping struct {
	// FreeOver is the subtotal in cents above which shipping is free.
	FreeOver int64
	// Fee is the flat shipping charge in cents.
	Fee int64
}

// ShippingFee returns 0 when subtotal > FreeOver, otherwise Fee.
// An exactly-at-threshold subtotal still pays the fee.
func (s ThresholdShipping) ShippingFee(subtotal int64) int64 {
	if subtotal > s.FreeOver {
		return 0
	}
	return s.Fee
}

// BasisPointsTax charges a flat tax rate expressed in basis points
// (1 bp = 0.01%). Rounding is half-up on the cent.
type BasisPointsTax struct {
	Bps int64
}

// Tax returns subtotal * Bps / 10000 rounded half-up.
func (t BasisPointsTax) Tax(subtotal int64) int64 {
	return (subtotal*t.Bps + 5000) / 10000
}

// Standard storefront pricing: free shipping over $50.00, otherwise $9.99,
// and 6% tax on the subtotal.
var (
	StandardShipping = ThresholdShipping{FreeOver: 5000, Fee: 999}
	StandardTax      = BasisPointsTax{Bps: 600}
)

// Totals is the derived pricing breakdown of a cart, in cents.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Totals computes the cart's pricing breakdown under the given policies.
// Shipping and tax are both derived from the subtotal alone; tax is not
// charged on shipping.
func (c *Cart) Totals(shipping ShippingPolicy, tax TaxPolicy) Totals {
	subtotal := c.Subtotal()
	fee := shipping.ShippingFee(subtotal)
	t := tax.Tax(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: fee,
		Tax:      t,
		Total:    subtotal + fee + t,
	}
}
