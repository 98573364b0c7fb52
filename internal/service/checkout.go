package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/payment"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// CheckoutInput holds the parameters for starting a checkout.
type CheckoutInput struct {
	Email string `json:"email" validate:"required,email"`
}

// CheckoutResult is returned when a checkout session is created.
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutService turns a cart into a hosted checkout session. The cart is
// read only; it is cleared later when the payment webhook confirms the
// order, never here.
type CheckoutService struct {
	carts    repository.CartRepository
	provider payment.CheckoutProvider
	pricing  PricingSource
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(carts repository.CartRepository, provider payment.CheckoutProvider, pricing PricingSource, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		provider: provider,
		pricing:  pricing,
		logger:   logger,
	}
}

// StartCheckout creates a provider checkout session for the cart's lines
// plus shipping and tax. Empty carts are rejected.
func (s *CheckoutService) StartCheckout(ctx context.Context, sessionID string, input CheckoutInput) (*CheckoutResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("cart session is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.InvalidInput("email is not valid")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, repository.ErrCorruptCart) {
			return nil, apperrors.InvalidInput("cart is empty")
		}
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	shipping, tax := s.pricing.Policies(ctx)
	totals := cart.Totals(shipping, tax)
	lines := checkoutLines(cart, totals)

	session, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		Lines:           lines,
		Email:           input.Email,
		ClientReference: sessionID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session creation failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.CheckoutFailed(err)
	}

	s.logger.InfoContext(ctx, "checkout started",
		slog.String("session_id", sessionID),
		slog.String("checkout_session_id", session.SessionID),
		slog.Int64("total", totals.Total),
	)

	return &CheckoutResult{
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// checkoutLines converts cart lines to provider lines, appending shipping
// and tax as synthetic single-quantity lines when non-zero.
func checkoutLines(cart *domain.Cart, totals domain.Totals) []payment.CheckoutLine {
	lines := make([]payment.CheckoutLine, 0, len(cart.Items)+2)
	for _, item := range cart.Items {
		lines = append(lines, payment.CheckoutLine{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	if totals.Shipping > 0 {
		lines = append(lines, payment.CheckoutLine{Name: "Shipping", Price: totals.Shipping, Quantity: 1})
	}
	if totals.Tax > 0 {
		lines = append(lines, payment.CheckoutLine{Name: "Tax", Price: totals.Tax, Quantity: 1})
	}
	return lines
}
