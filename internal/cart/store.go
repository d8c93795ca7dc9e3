package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyCart: cart:{cashier_id} -> JSON-encoded Cart
const keyCart = "cart:%s"

// Store persists carts keyed by the owning cashier. Save is called after
// every mutation; there is no write-behind.
type Store interface {
	Load(ctx context.Context, cashierID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cashierID uuid.UUID, c *Cart) error
	Delete(ctx context.Context, cashierID uuid.UUID) error
}

// RedisStore keeps each cart under its own key with a sliding TTL, so an
// abandoned session's cart eventually disappears.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Load returns the stored cart, or an empty one when none exists.
func (s *RedisStore) Load(ctx context.Context, cashierID uuid.UUID) (*Cart, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(keyCart, cashierID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, cashierID uuid.UUID, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, cashierID)
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(keyCart, cashierID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, cashierID uuid.UUID) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(keyCart, cashierID)).Err(); err != nil {
		return fmt.Errorf("cart: delete: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
