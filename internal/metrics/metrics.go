package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DistributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_distributions_total",
			Help: "Total number of point distributions by trigger reason",
		},
		[]string{"reason", "status"},
	)

	CPLegsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_cp_legs_total",
			Help: "Total number of CP ledger legs written",
		},
		[]string{"status"},
	)

	CPAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_cp_amount_total",
			Help: "Total CP credited, by status at write time",
		},
		[]string{"status"},
	)

	LevelSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_level_skips_total",
			Help: "Upline levels skipped during distribution",
		},
		[]string{"reason"},
	)

	UnlockEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loyalty_unlock_events_total",
			Help: "Total number of level unlock events",
		},
	)

	ReleasedCPTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loyalty_released_cp_total",
			Help: "Total CP moved from on-hold to available",
		},
	)

	TxRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_tx_retries_total",
			Help: "Transaction attempts retried after a lock conflict",
		},
		[]string{"outcome"},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_sweep_runs_total",
			Help: "Total number of release sweeps",
		},
		[]string{"status"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loyalty_sweep_duration_seconds",
			Help:    "Duration of release sweeps",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_notifications_total",
			Help: "Notifications dispatched by channel",
		},
		[]string{"channel", "status"},
	)
)
