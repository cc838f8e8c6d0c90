// Package sync keeps cart state converged across processes sharing the
// same storage key. Every store publishes a change notification after a
// write; the watcher reloads from storage when another process wrote and
// swaps the fresh snapshot into the local engine. Last writer wins.
package sync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/internal/repository"
)

var cartSyncReloadsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "cart_sync_reloads_total",
		Help: "Cart reloads triggered by change notifications from other processes",
	},
)

// Engine is the part of the cart engine the watcher drives.
type Engine interface {
	Replace(ctx context.Context, cart domain.Cart)
}

// Watcher subscribes to the store's change channel and mirrors remote
// writes into the local engine.
type Watcher struct {
	client *redis.Client
	store  repository.CartStore
	engine Engine
	key    string
	origin string
	logger *slog.Logger
}

// NewWatcher builds a watcher for the given storage key. origin must be the
// identifier the local store stamps on its own notifications so the watcher
// can ignore writes it caused itself.
func NewWatcher(client *redis.Client, store repository.CartStore, engine Engine, key, origin string, logger *slog.Logger) *Watcher {
	return &Watcher{
		client: client,
		store:  store,
		engine: engine,
		key:    key,
		origin: origin,
		logger: logger,
	}
}

// Run subscribes and processes notifications until ctx is cancelled.
// Malformed notifications are logged and skipped; the subscription stays up.
func (w *Watcher) Run(ctx context.Context) error {
	channel := repository.ChangeChannel(w.key)
	sub := w.client.Subscribe(ctx, channel)
	defer sub.Close()

	// Fail fast if the subscription could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "cart watcher started", slog.String("channel", channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "cart watcher stopping")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, msg.Payload)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, payload string) {
	var note repository.ChangeNotification
	if err := json.Unmarshal([]byte(payload), &note); err != nil {
		w.logger.WarnContext(ctx, "ignoring malformed change notification",
			slog.String("error", err.Error()))
		return
	}

	// A process sees its own writes directly; only remote writes matter.
	if note.Origin == w.origin {
		return
	}
	if note.Old == note.New {
		return
	}

	cart, err := w.store.Load(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to reload cart after remote change",
			slog.String("error", err.Error()))
		return
	}

	w.engine.Replace(ctx, cart)
	cartSyncReloadsTotal.Inc()
	w.logger.InfoContext(ctx, "cart reloaded after remote change",
		slog.String("origin", note.Origin),
		slog.Int("items", len(cart)))
}
