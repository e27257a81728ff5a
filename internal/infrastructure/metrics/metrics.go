package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted prometheus.Counter
	TransferFailures   *prometheus.CounterVec
	TransferDuration   prometheus.Histogram
	TransferAmount     prometheus.Histogram

	// Funding metrics
	DepositsCompleted    prometheus.Counter
	PayoutsCompleted     prometheus.Counter
	CompensationsApplied prometheus.Counter
	RailOutcomes         *prometheus.CounterVec

	// Wallet metrics
	WalletsCreated   prometheus.Counter
	WalletBalance    *prometheus.GaugeVec
	WalletOperations *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationRuns       prometheus.Counter
	ReconciliationMismatches prometheus.Counter

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_transfers_completed_total",
			Help: "Total number of internal transfers completed",
		}),
		TransferFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_transfer_failures_total",
				Help: "Total number of transfer failures by type",
			},
			[]string{"error_type"},
		),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "remit_transfer_duration_seconds",
			Help:    "Duration of movement operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "remit_transfer_amount",
			Help:    "Transfer amounts in settlement units",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Funding metrics
		DepositsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_deposits_completed_total",
			Help: "Total number of external deposits completed",
		}),
		PayoutsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_payouts_completed_total",
			Help: "Total number of external payouts completed",
		}),
		CompensationsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_compensations_applied_total",
			Help: "Total number of compensating credits applied",
		}),
		RailOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_rail_outcomes_total",
				Help: "Settlement rail outcomes by status",
			},
			[]string{"status"},
		),

		// Wallet metrics
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		WalletBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "remit_wallet_balance",
				Help: "Current wallet balance in settlement units",
			},
			[]string{"wallet_id"},
		),
		WalletOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_wallet_operations_total",
				Help: "Total wallet operations by type",
			},
			[]string{"operation"},
		),

		// Reconciliation metrics
		ReconciliationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_reconciliation_runs_total",
			Help: "Total reconciliation passes",
		}),
		ReconciliationMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "remit_reconciliation_mismatches_total",
			Help: "Wallets whose balance diverged from completed records",
		}),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "remit_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "remit_db_connections",
			Help: "Current number of database connections",
		}),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
