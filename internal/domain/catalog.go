package domain

import "time"

// Product represents a catalog product. Prices are in cents.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	CompareAtPrice *int64    `json:"compare_at_price,omitempty"`
	Inventory      int       `json:"inventory"`
	Images         []string  `json:"images"`
	Published      bool      `json:"published"`
	Featured       bool      `json:"featured"`
	CategoryID     *string   `json:"category_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PrimaryImage returns the first image URL, or "" if the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// OnSale reports whether the product has a compare-at price above its
// current price.
func (p *Product) OnSale() bool {
	return p.CompareAtPrice != nil && *p.CompareAtPrice > p.Price
}

// Category groups products for storefront navigation.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategorySlug  string
	Search        string
	FeaturedOnly  bool
	PublishedOnly bool
}
