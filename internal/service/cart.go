// Package service holds the cart engine: an in-memory cart guarded by a
// mutex, persisted through a CartStore after every successful mutation.
// The in-memory state is authoritative; a failed write degrades to a
// warning, never to a rollback.
package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/internal/repository"
	apperrors "github.com/trusttec/cart-service/pkg/errors"
)

// OutcomeKind classifies how a cart mutation resolved.
type OutcomeKind string

const (
	OutcomeAdded        OutcomeKind = "added"
	OutcomeUpdated      OutcomeKind = "updated"
	OutcomeLimitReached OutcomeKind = "limit_reached"
	OutcomeCapped       OutcomeKind = "capped"
	OutcomeRemoved      OutcomeKind = "removed"
	OutcomeCleared      OutcomeKind = "cleared"
	OutcomeNoop         OutcomeKind = "noop"
)

// Outcome reports how a mutation resolved so callers can phrase user
// feedback without re-deriving cart state.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	ItemName string      `json:"item_name,omitempty"`
	Quantity int         `json:"quantity,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

// ProductInput is the candidate product handed to AddItem.
type ProductInput struct {
	ID        string
	Name      string
	UnitPrice float64
	ImageURL  string
}

// Observer is invoked after every state change with a snapshot of the new
// cart and its totals. Observers run synchronously under the engine lock;
// they must not call back into the engine.
type Observer func(ctx context.Context, cart domain.Cart, totals domain.CartTotals)

// CartService serializes all cart mutations behind a single mutex and
// mirrors every change to the backing store.
type CartService struct {
	mu          sync.Mutex
	cart        domain.Cart
	store       repository.CartStore
	maxQuantity int
	logger      *slog.Logger
	observers   []Observer
}

// NewCartService builds the engine and hydrates it from storage. A failed
// load is logged and degraded to an empty cart so the engine always starts.
// maxQuantity must be at least 1; the config layer enforces that bound.
func NewCartService(ctx context.Context, store repository.CartStore, maxQuantity int, logger *slog.Logger) *CartService {
	s := &CartService{
		store:       store,
		maxQuantity: maxQuantity,
		logger:      logger,
	}

	cart, err := store.Load(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load cart from storage, starting empty",
			slog.String("error", err.Error()))
		cart = domain.Cart{}
	}
	s.cart = cart

	return s
}

// OnChange registers an observer. Registration is expected at wiring time,
// before the engine starts receiving requests.
func (s *CartService) OnChange(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// AddItem adds one unit of the given product. A product already in the cart
// has its quantity incremented instead; at the per-item limit the cart is
// left untouched and the outcome reports limit_reached.
func (s *CartService) AddItem(ctx context.Context, p ProductInput) (Outcome, error) {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		return Outcome{}, apperrors.InvalidProduct("product id and name are required")
	}
	if math.IsNaN(p.UnitPrice) || math.IsInf(p.UnitPrice, 0) || p.UnitPrice < 0 {
		return Outcome{}, apperrors.InvalidProduct("product price must be a non-negative number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome Outcome
	if idx := s.cart.FindIndex(p.ID); idx >= 0 {
		item := &s.cart[idx]
		if item.Quantity+1 > s.maxQuantity {
			outcome = Outcome{Kind: OutcomeLimitReached, ItemName: item.Name, Quantity: item.Quantity, Limit: s.maxQuantity}
			cartOperationsTotal.WithLabelValues("add_item", string(outcome.Kind)).Inc()
			return outcome, nil
		}
		item.Quantity++
		outcome = Outcome{Kind: OutcomeUpdated, ItemName: item.Name, Quantity: item.Quantity}
	} else {
		s.cart = append(s.cart, domain.LineItem{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  1,
			ImageURL:  p.ImageURL,
		})
		outcome = Outcome{Kind: OutcomeAdded, ItemName: p.Name, Quantity: 1}
	}

	cartOperationsTotal.WithLabelValues("add_item", string(outcome.Kind)).Inc()
	return outcome, s.commit(ctx)
}

// UpdateQuantity sets the quantity of an existing item. The requested value
// is truncated toward zero and clamped to [0, limit]; a resulting zero
// removes the item, and a request above the limit is capped at the limit.
func (s *CartService) UpdateQuantity(ctx context.Context, id string, requested float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The existence check comes first: a stale id is reported as not found
	// even when the requested value is also unusable.
	idx := s.cart.FindIndex(id)
	if idx < 0 {
		return Outcome{}, apperrors.NotFound("cart item", id)
	}

	if math.IsNaN(requested) || math.IsInf(requested, 0) {
		return Outcome{}, apperrors.InvalidQuantity("quantity must be a finite number")
	}

	truncated := int(math.Trunc(requested))
	clamped := truncated
	if clamped < 0 {
		clamped = 0
	}
	if clamped > s.maxQuantity {
		clamped = s.maxQuantity
	}

	item := s.cart[idx]
	var outcome Outcome
	switch {
	case clamped == 0:
		s.cart = append(s.cart[:idx], s.cart[idx+1:]...)
		outcome = Outcome{Kind: OutcomeRemoved, ItemName: item.Name}
	case truncated > s.maxQuantity:
		s.cart[idx].Quantity = clamped
		outcome = Outcome{Kind: OutcomeCapped, ItemName: item.Name, Quantity: clamped, Limit: s.maxQuantity}
	default:
		s.cart[idx].Quantity = clamped
		outcome = Outcome{Kind: OutcomeUpdated, ItemName: item.Name, Quantity: clamped}
	}

	cartOperationsTotal.WithLabelValues("update_quantity", string(outcome.Kind)).Inc()
	return outcome, s.commit(ctx)
}

// RemoveItem deletes an item from the cart regardless of its quantity.
func (s *CartService) RemoveItem(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cart.FindIndex(id)
	if idx < 0 {
		return Outcome{}, apperrors.NotFound("cart item", id)
	}

	name := s.cart[idx].Name
	s.cart = append(s.cart[:idx], s.cart[idx+1:]...)

	outcome := Outcome{Kind: OutcomeRemoved, ItemName: name}
	cartOperationsTotal.WithLabelValues("remove_item", string(outcome.Kind)).Inc()
	return outcome, s.commit(ctx)
}

// Clear empties the cart. An already empty cart is a noop: nothing is
// written and observers are not notified.
func (s *CartService) Clear(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		cartOperationsTotal.WithLabelValues("clear", string(OutcomeNoop)).Inc()
		return Outcome{Kind: OutcomeNoop}, nil
	}

	s.cart = domain.Cart{}
	cartOperationsTotal.WithLabelValues("clear", string(OutcomeCleared)).Inc()
	return Outcome{Kind: OutcomeCleared}, s.commit(ctx)
}

// Totals computes the aggregate price and unit count of the cart. Items
// that fail validation are skipped and logged, never counted.
func (s *CartService) Totals(ctx context.Context) domain.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked(ctx)
}

// Snapshot returns a copy of the cart safe to use outside the lock.
func (s *CartService) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// State returns the cart snapshot and its totals from one critical section,
// so a concurrent Replace cannot slip between the two reads.
func (s *CartService) State(ctx context.Context) (domain.Cart, domain.CartTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone(), s.totalsLocked(ctx)
}

// OrderSummary builds the line-by-line order breakdown for checkout.
func (s *CartService) OrderSummary() domain.OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.OrderSummary()
}

// Replace swaps in a cart snapshot loaded from storage and notifies
// observers through the same path as a local mutation. No write happens:
// the snapshot already came from storage.
func (s *CartService) Replace(ctx context.Context, cart domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = cart.Clone()
	s.notifyLocked(ctx)
}

// commit persists the current cart and notifies observers. Must be called
// with the mutex held. A failed write is reported to the caller but the
// mutation stands; observers still see the new state.
func (s *CartService) commit(ctx context.Context) error {
	var saveErr error
	if err := s.store.Save(ctx, s.cart); err != nil {
		cartPersistFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("error", err.Error()))
		saveErr = apperrors.Persistence(err)
	}

	s.notifyLocked(ctx)
	return saveErr
}

func (s *CartService) notifyLocked(ctx context.Context) {
	if len(s.observers) == 0 {
		return
	}

	snapshot := s.cart.Clone()
	totals := s.totalsLocked(ctx)
	for _, obs := range s.observers {
		obs(ctx, snapshot, totals)
	}
}

func (s *CartService) totalsLocked(ctx context.Context) domain.CartTotals {
	totals, skipped := s.cart.Totals()
	if skipped > 0 {
		cartItemsDroppedTotal.Add(float64(skipped))
		s.logger.WarnContext(ctx, "skipped invalid items while computing totals",
			slog.Int("skipped", skipped))
	}
	return totals
}
