// Package metrics exposes prometheus counters for the commission core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubscriptionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miapass",
		Name:      "subscriptions_created_total",
		Help:      "Subscriptions created since process start.",
	})

	SubscriptionsVoided = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miapass",
		Name:      "subscriptions_voided_total",
		Help:      "Terminal subscription transitions by target state.",
	}, []string{"state"})

	CommissionsLiquidated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miapass",
		Name:      "commissions_liquidated_total",
		Help:      "Commission records created by the liquidation engine.",
	})

	CommissionsReversed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miapass",
		Name:      "commissions_reversed_total",
		Help:      "Commission records moved to REVERSED.",
	})

	SettlementsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miapass",
		Name:      "settlements_generated_total",
		Help:      "Settlement batches generated.",
	})
)
