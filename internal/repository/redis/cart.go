package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/internal/repository"
)

// CartStore implements repository.CartStore using Redis. One store instance
// serves one storage key; the key name carries the schema version, and a
// key-name bump is the only migration mechanism (data under an old key is
// orphaned, never migrated in place).
type CartStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	origin string
	logger *slog.Logger
}

// NewCartStore creates a Redis-backed cart store for the given storage key.
// A ttl of zero keeps the key forever.
func NewCartStore(client *redis.Client, key string, ttl time.Duration, logger *slog.Logger) *CartStore {
	return &CartStore{
		client: client,
		key:    key,
		ttl:    ttl,
		origin: uuid.New().String(),
		logger: logger,
	}
}

// Key returns the storage key this store reads and writes.
func (s *CartStore) Key() string {
	return s.key
}

// Origin returns this store instance's origin id, attached to every change
// notification it publishes.
func (s *CartStore) Origin() string {
	return s.origin
}

// Load reads the cart snapshot from Redis. Corrupted values are healed here:
// a value that isn't a parseable JSON array is cleared from storage so
// subsequent loads don't trip over it again, and elements of a parseable
// array are decoded one by one, keeping only the valid ones. Only backend
// I/O failures are returned.
func (s *CartStore) Load(ctx context.Context) (domain.Cart, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.Cart{}, nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		s.logger.WarnContext(ctx, "corrupt cart snapshot, clearing stored value",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		// Drop the corrupt blob so the next load doesn't fail the same way.
		if delErr := s.client.Del(ctx, s.key).Err(); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear corrupt cart snapshot",
				slog.String("key", s.key),
				slog.String("error", delErr.Error()),
			)
		}
		return domain.Cart{}, nil
	}

	// Per-element recovery: a single element with a mismatched field type
	// must not take the rest of the snapshot down with it.
	cart := make(domain.Cart, 0, len(elements))
	dropped := 0
	for _, raw := range elements {
		var item domain.LineItem
		if err := json.Unmarshal(raw, &item); err != nil || !item.Valid() {
			dropped++
			continue
		}
		cart = append(cart, item)
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped invalid line items during load",
			slog.String("key", s.key),
			slog.Int("dropped", dropped),
			slog.Int("kept", len(cart)),
		)
	}

	return cart, nil
}

// Save sanitizes the cart, writes the snapshot, and publishes a change
// notification carrying the old and new raw values. The write is the
// operation; a publish failure is logged but does not fail the save.
func (s *CartStore) Save(ctx context.Context, cart domain.Cart) error {
	sanitized, dropped := domain.Sanitize(cart)
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped invalid line items before save",
			slog.String("key", s.key),
			slog.Int("dropped", dropped),
		)
	}

	data, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	// Best effort: the old value only feeds the change notification.
	old, err := s.client.Get(ctx, s.key).Result()
	if err != nil && err != redis.Nil {
		old = ""
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	s.publishChange(ctx, old, string(data))

	return nil
}

func (s *CartStore) publishChange(ctx context.Context, old, updated string) {
	note := repository.ChangeNotification{
		Origin: s.origin,
		Old:    old,
		New:    updated,
	}

	payload, err := json.Marshal(note)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal change notification",
			slog.String("error", err.Error()),
		)
		return
	}

	channel := repository.ChangeChannel(s.key)
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		s.logger.ErrorContext(ctx, "publish change notification",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
