package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted prometheus.Counter
	TransferDuration   prometheus.Histogram
	TransferAmount     prometheus.Histogram
	TransferErrors     *prometheus.CounterVec

	// Credit metrics
	CreditsApplied prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// Notification metrics
	NotificationsSent    prometheus.Counter
	NotificationsDropped prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		CreditsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_credits_applied_total",
			Help: "Total number of admin credits applied",
		}),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_notifications_sent_total",
			Help: "Total number of notifications delivered to the sink",
		}),
		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_notifications_dropped_total",
			Help: "Total number of notifications dropped due to a full buffer",
		}),
	}
}
