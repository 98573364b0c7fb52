package domain

import (
	"fmt"
	"time"
)

// LineItem represents a single product line in a cart. Price is in cents.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Cart represents a shopper's cart keyed by session. Mutations are pure:
// they change only the in-memory cart and never perform I/O.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	NextSeq   int64      `json:"next_seq"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart creates an empty cart for the given session.
func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Items:     []LineItem{},
		NextSeq:   1,
		UpdatedAt: time.Now().UTC(),
	}
}

// mintItemID derives a stable line item ID from the product identity and a
// per-cart monotonic sequence. Two adds of the same (product, variant) merge
// into one line, so the sequence only advances when a new line is created.
func (c *Cart) mintItemID(productID, variantID string) string {
	variant := variantID
	if variant == "" {
		variant = "default"
	}
	id := fmt.Sprintf("%s-%s-%d", productID, variant, c.NextSeq)
	c.NextSeq++
	return id
}

// findLine returns the index of the line matching (productID, variantID),
// or -1 if no such line exists.
func (c *Cart) findLine(productID, variantID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			return i
		}
	}
	return -1
}

// findByID returns the index of the line with the given item ID, or -1.
func (c *Cart) findByID(itemID string) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity of a product line to the cart. Lines are identified
// by (product, variant): adding an existing identity accumulates quantity on
// the existing line and keeps its original display data. A new identity
// appends a line with a freshly minted ID.
func (c *Cart) AddItem(productID, variantID, name, slug string, price int64, image string, quantity int) LineItem {
	if i := c.findLine(productID, variantID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.touch()
		return c.Items[i]
	}

	item := LineItem{
		ID:        c.mintItemID(productID, variantID),
		ProductID: productID,
		VariantID: variantID,
		Name:      name,
		Slug:      slug,
		Price:     price,
		Image:     image,
		Quantity:  quantity,
	}
	c.Items = append(c.Items, item)
	c.touch()
	return item
}

// UpdateQuantity sets the quantity of the line with the given item ID.
// A quantity below 1 removes the line. An unknown ID leaves the cart
// unchanged, like RemoveItem.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	i := c.findByID(itemID)
	if i < 0 {
		return
	}

	if quantity < 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.touch()
}

// RemoveItem deletes the line with the given item ID. Removing an absent
// item is a no-op.
func (c *Cart) RemoveItem(itemID string) {
	i := c.findByID(itemID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
}

// Clear empties the cart. The ID sequence keeps advancing so item IDs are
// never reused within a session.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
	c.touch()
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of price times quantity across all lines, in cents.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
