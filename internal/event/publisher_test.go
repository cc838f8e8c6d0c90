package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/pkg/kafka"
	"github.com/trusttec/cart-service/pkg/logger"
)

type capturingProducer struct {
	topic string
	event *kafka.Event
	err   error
}

func (p *capturingProducer) Publish(_ context.Context, topic string, event *kafka.Event) error {
	p.topic = topic
	p.event = event
	return p.err
}

func TestCartChanged_PublishesUpdatedEvent(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, "trusttec:cart:v2", logger.New("cart-service-test", "debug"))

	cart := domain.Cart{{ID: "p1", Name: "Clavier", UnitPrice: 12000, Quantity: 2}}
	pub.CartChanged(context.Background(), cart, domain.CartTotals{TotalPrice: 24000, TotalItems: 2})

	require.NotNil(t, producer.event)
	assert.Equal(t, TopicCartUpdated, producer.topic)
	assert.Equal(t, "cart.updated", producer.event.EventType)
	assert.Equal(t, "trusttec:cart:v2", producer.event.AggregateID)

	var payload CartChangedPayload
	require.NoError(t, json.Unmarshal(producer.event.Data, &payload))
	assert.Len(t, payload.Items, 1)
	assert.Equal(t, 24000.0, payload.Totals.TotalPrice)
}

func TestCartChanged_EmptyCartPublishesClearedEvent(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, "trusttec:cart:v2", logger.New("cart-service-test", "debug"))

	pub.CartChanged(context.Background(), domain.Cart{}, domain.CartTotals{})

	require.NotNil(t, producer.event)
	assert.Equal(t, TopicCartCleared, producer.topic)
	assert.Equal(t, "cart.cleared", producer.event.EventType)
}

func TestCartChanged_CarriesCorrelationID(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, "trusttec:cart:v2", logger.New("cart-service-test", "debug"))

	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	pub.CartChanged(ctx, domain.Cart{{ID: "p1", Name: "Clavier", UnitPrice: 12000, Quantity: 1}}, domain.CartTotals{TotalPrice: 12000, TotalItems: 1})

	require.NotNil(t, producer.event)
	assert.Equal(t, "corr-123", producer.event.CorrelationID)
}

func TestCartChanged_PublishFailureIsSwallowed(t *testing.T) {
	producer := &capturingProducer{err: errors.New("broker unavailable")}
	pub := NewPublisher(producer, "trusttec:cart:v2", logger.New("cart-service-test", "debug"))

	// Must not panic or surface the error; publishing is best effort.
	pub.CartChanged(context.Background(), domain.Cart{}, domain.CartTotals{})
}
