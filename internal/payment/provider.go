package payment

import "context"

// CheckoutLine is a purchasable line sent to the payment provider.
type CheckoutLine struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

// CheckoutSession is the provider's handle for a hosted checkout.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutRequest is the input for creating a hosted checkout session.
// ClientReference carries the cart session identifier; the provider echoes
// it back in webhook events so the completed payment can be matched to its
// cart.
type CheckoutRequest struct {
	Lines           []CheckoutLine
	Email           string
	ClientReference string
}

// CheckoutProvider creates hosted checkout sessions with an external
// payment provider. The shopper completes payment on the provider's page
// and the provider reports the result through a signed webhook.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
