package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/pkg/database"
	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
	"github.com/meridian-commerce/storefront/pkg/pagination"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, email, status, subtotal, shipping, tax, total, checkout_session_id, payment_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.Email,
		o.Status,
		o.Subtotal,
		o.Shipping,
		o.Tax,
		o.Total,
		o.CheckoutSessionID,
		o.PaymentIntentID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "checkout_session_id", o.CheckoutSessionID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, name, price, quantity, image)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.Name,
			item.Price,
			item.Quantity,
			item.Image,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getByColumn(ctx, "o.id", id)
}

// GetByCheckoutSession retrieves the order recorded for a provider checkout
// session. Used by the webhook handler to keep recording idempotent.
func (r *OrderRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.getByColumn(ctx, "o.checkout_session_id", sessionID)
}

// getByColumn fetches a single order and its items in one query using
// LEFT JOIN + JSONB_AGG, avoiding a second round trip for the items.
func (r *OrderRepository) getByColumn(ctx context.Context, column, value string) (*domain.Order, error) {
	orderQuery := fmt.Sprintf(`
		SELECT
			o.id, o.email, o.status, o.subtotal, o.shipping, o.tax, o.total,
			o.checkout_session_id, o.payment_intent_id, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'name', oi.name,
						'price', oi.price,
						'quantity', oi.quantity,
						'image', oi.image
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE %s = $1
		GROUP BY o.id, o.email, o.status, o.subtotal, o.shipping, o.tax, o.total,
			o.checkout_session_id, o.payment_intent_id, o.created_at, o.updated_at`,
		column,
	)

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, orderQuery, value).Scan(
		&o.ID,
		&o.Email,
		&o.Status,
		&o.Subtotal,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&o.CheckoutSessionID,
		&o.PaymentIntentID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// List returns orders newest first with the total count. Items are not
// loaded for listings.
func (r *OrderRepository) List(ctx context.Context, params pagination.Params) ([]domain.Order, int, error) {
	query := `
		SELECT id, email, status, subtotal, shipping, tax, total, checkout_session_id, payment_intent_id, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.Email,
			&o.Status,
			&o.Subtotal,
			&o.Shipping,
			&o.Tax,
			&o.Total,
			&o.CheckoutSessionID,
			&o.PaymentIntentID,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o.Items = []domain.OrderItem{}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}
