package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	cartItemsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_items_dropped_total",
			Help: "Line items dropped from totals because they failed validation",
		},
	)

	cartPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_persist_failures_total",
			Help: "Cart snapshot writes that failed; in-memory state stays authoritative",
		},
	)
)
