package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-commerce/storefront/internal/domain"
	"github.com/meridian-commerce/storefront/internal/repository"
	apperrors "github.com/meridian-commerce/storefront/pkg/errors"
)

const (
	keyPrefix = "cart:"

	// schemaVersion is bumped when the stored cart layout changes.
	// Records written before versioning carry 0 and decode the same way.
	schemaVersion = 1
)

type cartRecord struct {
	SchemaVersion int               `json:"schema_version"`
	SessionID     string            `json:"session_id"`
	Items         []domain.LineItem `json:"items"`
	NextSeq       int64             `json:"next_seq"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CartRepository stores carts in Redis with a sliding TTL.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

func (r *CartRepository) key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("get cart %s: %w", sessionID, err)
	}

	var rec cartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrCorruptCart, sessionID)
	}
	if rec.SchemaVersion > schemaVersion {
		return nil, fmt.Errorf("%w: session %s has schema version %d", repository.ErrCorruptCart, sessionID, rec.SchemaVersion)
	}

	cart := &domain.Cart{
		SessionID: sessionID,
		Items:     rec.Items,
		NextSeq:   rec.NextSeq,
		UpdatedAt: rec.UpdatedAt,
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	if cart.NextSeq < 1 {
		cart.NextSeq = 1
	}
	return cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	rec := cartRecord{
		SchemaVersion: schemaVersion,
		SessionID:     cart.SessionID,
		Items:         cart.Items,
		NextSeq:       cart.NextSeq,
		UpdatedAt:     cart.UpdatedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", cart.SessionID, err)
	}
	if err := r.client.Set(ctx, r.key(cart.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", cart.SessionID, err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", sessionID, err)
	}
	return nil
}
