package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Freeze metrics
	FreezesCreated      prometheus.Counter
	FreezesCommitted    prometheus.Counter
	FreezesRefunded     *prometheus.CounterVec
	FreezeAmount        prometheus.Histogram
	FreezeDuration      prometheus.Histogram
	FreezeErrors        *prometheus.CounterVec
	ResolutionConflicts prometheus.Counter
	PendingFreezes      prometheus.Gauge

	// Sweeper metrics
	SweepRuns        prometheus.Counter
	SweepDuration    prometheus.Histogram
	SweepProcessed   prometheus.Counter
	SweepErrors      prometheus.Counter
	SweepClaimMisses prometheus.Counter

	// Provider metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// Account metrics
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	OutboxBacklog   prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg. Tests use a fresh registry
// so several instances can coexist.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Freeze metrics
		FreezesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_freezes_created_total",
			Help: "Total number of freezes created",
		}),
		FreezesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_freezes_committed_total",
			Help: "Total number of freezes committed",
		}),
		FreezesRefunded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_freezes_refunded_total",
				Help: "Total number of freezes refunded by reason",
			},
			[]string{"reason"},
		),
		FreezeAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smsledger_freeze_amount",
			Help:    "Frozen amounts",
			Buckets: []float64{0.1, 1, 5, 10, 50, 100, 1000},
		}),
		FreezeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smsledger_freeze_operation_duration_seconds",
			Help:    "Duration of reserve and resolve operations",
			Buckets: prometheus.DefBuckets,
		}),
		FreezeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_freeze_errors_total",
				Help: "Total number of freeze errors by type",
			},
			[]string{"operation", "error_type"},
		),
		ResolutionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_resolution_conflicts_total",
			Help: "Resolutions rejected because the freeze already sits in the opposite terminal state",
		}),
		PendingFreezes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smsledger_pending_freezes",
			Help: "PENDING freezes seen by the last consistency check",
		}),

		// Sweeper metrics
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_sweep_runs_total",
			Help: "Total number of expiry sweep passes",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smsledger_sweep_duration_seconds",
			Help:    "Duration of expiry sweep passes",
			Buckets: prometheus.DefBuckets,
		}),
		SweepProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_sweep_processed_total",
			Help: "Expired freezes handled by the sweeper",
		}),
		SweepErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_sweep_errors_total",
			Help: "Expired freezes the sweeper failed to refund",
		}),
		SweepClaimMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_sweep_claim_misses_total",
			Help: "Expired freezes skipped because another pass holds the claim",
		}),

		// Provider metrics
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_provider_calls_total",
				Help: "Provider calls by method and result",
			},
			[]string{"method", "result"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smsledger_provider_duration_seconds",
				Help:    "Provider call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "smsledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_account_operations_total",
				Help: "Total account balance mutations by kind",
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smsledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_db_retries_total",
				Help: "Transactions retried after deadlock or serialization failure",
			},
			[]string{"code"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_outbox_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		OutboxBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smsledger_outbox_backlog",
			Help: "Outbox events waiting to be published",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
