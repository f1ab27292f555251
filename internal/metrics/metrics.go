package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Delivery metrics
	DeliveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempts_total",
			Help: "Total number of outbound chat platform calls by result",
		},
		[]string{"result"},
	)
	DeliveryTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_timeouts_total",
			Help: "Deliveries that exhausted every attempt on timeouts",
		},
	)
	GateWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "admission_gate_wait_seconds",
			Help:    "Time spent blocked in the admission gate",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Subscription metrics
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Subscription events by outcome",
		},
		[]string{"event", "outcome"},
	)
	StoreConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_store_conflicts_total",
			Help: "Record writes rejected by the revision check",
		},
	)
	IndexEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "active_index_evictions_total",
			Help: "Recipients removed from the active index by the sweeper",
		},
	)

	// Broadcast metrics
	BroadcastMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Broadcast sends by result",
		},
		[]string{"result"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(DeliveryAttemptsTotal)
	prometheus.MustRegister(DeliveryTimeoutsTotal)
	prometheus.MustRegister(GateWaitSeconds)

	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(StoreConflictsTotal)
	prometheus.MustRegister(IndexEvictionsTotal)

	prometheus.MustRegister(BroadcastMessagesTotal)
}
