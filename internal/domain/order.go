package domain

import "time"

// Order status constants. Orders are created paid: they only exist once the
// payment provider has confirmed a completed checkout session.
const (
	OrderStatusPaid      = "paid"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusRefunded  = "refunded"
)

// Order represents a completed checkout recorded from the payment provider
// webhook. Amounts are in cents.
type Order struct {
	ID                string      `json:"id"`
	Email             string      `json:"email"`
	Status            string      `json:"status"`
	Items             []OrderItem `json:"items"`
	Subtotal          int64       `json:"subtotal"`
	Shipping          int64       `json:"shipping"`
	Tax               int64       `json:"tax"`
	Total             int64       `json:"total"`
	CheckoutSessionID string      `json:"checkout_session_id"`
	PaymentIntentID   string      `json:"payment_intent_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is a snapshot of a purchased line at checkout time.
type OrderItem struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{OrderStatusPaid, OrderStatusFulfilled, OrderStatusRefunded}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedOrderTransitions defines which status transitions are valid.
func AllowedOrderTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPaid:      {OrderStatusFulfilled, OrderStatusRefunded},
		OrderStatusFulfilled: {OrderStatusRefunded},
		OrderStatusRefunded:  {},
	}
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedOrderTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
