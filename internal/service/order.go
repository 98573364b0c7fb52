package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/pagination"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/event"
	"github.com/meridian-commerce/storefront/internal/repository"
)

// OrderService records orders from confirmed payments and manages their
// lifecycle.
type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	producer *event.Producer
	pricing  PricingSource
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, producer *event.Producer, pricing PricingSource, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		producer: producer,
		pricing:  pricing,
		logger:   logger,
	}
}

// RecordPaidOrder snapshots the session's cart into a paid order after the
// payment provider confirms a checkout session, then clears the cart.
// Recording is idempotent per checkout session: a replayed webhook returns
// the existing order.
func (s *OrderService) RecordPaidOrder(ctx context.Context, cartSessionID, checkoutSessionID, paymentIntentID, email string) (*domain.Order, error) {
	if checkoutSessionID == "" {
		return nil, apperrors.InvalidInput("checkout session id is required")
	}

	existing, err := s.orders.GetByCheckoutSession(ctx, checkoutSessionID)
	if err == nil {
		s.logger.InfoContext(ctx, "duplicate payment confirmation ignored",
			slog.String("checkout_session_id", checkoutSessionID),
			slog.String("order_id", existing.ID),
		)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing order: %w", err)
	}

	cart, err := s.carts.Get(ctx, cartSessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for order: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	shipping, tax := s.pricing.Policies(ctx)
	totals := cart.Totals(shipping, tax)
	now := time.Now().UTC()

	orderID := uuid.New().String()
	items := make([]domain.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = domain.OrderItem{
			ID:       uuid.New().String(),
			OrderID:  orderID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Image:    line.Image,
		}
	}

	order := &domain.Order{
		ID:                orderID,
		Email:             email,
		Status:            domain.OrderStatusPaid,
		Items:             items,
		Subtotal:          totals.Subtotal,
		Shipping:          totals.Shipping,
		Tax:               totals.Tax,
		Total:             totals.Total,
		CheckoutSessionID: checkoutSessionID,
		PaymentIntentID:   paymentIntentID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Lost the race with a concurrent webhook delivery.
			return s.orders.GetByCheckoutSession(ctx, checkoutSessionID)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Delete(ctx, cartSessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.String("session_id", cartSessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order recorded",
		slog.String("order_id", order.ID),
		slog.String("checkout_session_id", checkoutSessionID),
		slog.Int64("total", order.Total),
	)

	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, params pagination.Params) ([]domain.Order, int, error) {
	orders, total, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus transitions an order to a new status. Only forward
// transitions are allowed: paid orders can be fulfilled or refunded, and
// fulfilled orders refunded.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status: %s", status))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !order.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot transition order from %s to %s", order.Status, status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = status

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("status", status),
	)

	return order, nil
}
