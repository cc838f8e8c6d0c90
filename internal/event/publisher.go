// Package event publishes cart lifecycle events to Kafka so downstream
// consumers (analytics, stock reservation) can follow cart activity.
// Publishing is best effort: a failed emit is logged, never surfaced to
// the shopper.
package event

import (
	"context"
	"log/slog"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/pkg/kafka"
	"github.com/trusttec/cart-service/pkg/logger"
)

const (
	TopicCartUpdated = "trusttec.cart.updated"
	TopicCartCleared = "trusttec.cart.cleared"

	aggregateType = "cart"
	source        = "cart-service"
)

// CartChangedPayload is the event body shared by updated and cleared events.
type CartChangedPayload struct {
	Items  domain.Cart       `json:"items"`
	Totals domain.CartTotals `json:"totals"`
}

// producer is the slice of pkg/kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Publisher turns engine change notifications into Kafka events.
type Publisher struct {
	producer producer
	cartKey  string
	logger   *slog.Logger
}

// NewPublisher wraps a Kafka producer. cartKey identifies the cart the
// events describe and becomes the aggregate id.
func NewPublisher(producer producer, cartKey string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		cartKey:  cartKey,
		logger:   logger,
	}
}

// CartChanged is registered as an engine observer. An empty cart emits a
// cleared event, anything else an updated event.
func (p *Publisher) CartChanged(ctx context.Context, cart domain.Cart, totals domain.CartTotals) {
	topic := TopicCartUpdated
	eventType := "cart.updated"
	if len(cart) == 0 {
		topic = TopicCartCleared
		eventType = "cart.cleared"
	}

	evt, err := kafka.NewEvent(eventType, p.cartKey, aggregateType, source, CartChangedPayload{
		Items:  cart,
		Totals: totals,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build cart event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt = evt.WithCorrelationID(id)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
	}
}
