// Package metrics exposes Prometheus collectors for adapter operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Transaction outcome label values.
const (
	TxCommit       = "commit"
	TxRollback     = "rollback"
	TxBeginFailed  = "begin_failed"
	TxCommitFailed = "commit_failed"
)

// Metrics contains Prometheus metrics for the adapter.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Operations by public operation name and result
	operations *prometheus.CounterVec

	// Operation latency
	duration *prometheus.HistogramVec

	// Transactions by outcome
	transactions *prometheus.CounterVec

	// Rows touched by mutation kind (insert, delete, update)
	rows *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casbinsql_operations_total",
				Help: "Total number of adapter operations",
			},
			[]string{"op", "result"},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "casbinsql_operation_duration_seconds",
				Help:    "Adapter operation latency in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),

		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casbinsql_transactions_total",
				Help: "Total number of transactions by outcome",
			},
			[]string{"outcome"},
		),

		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casbinsql_rows_total",
				Help: "Total number of policy rows affected by kind",
			},
			[]string{"kind"},
		),
	}
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveTransaction records a transaction outcome.
func (m *Metrics) ObserveTransaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// AddRows records n affected rows of the given kind.
func (m *Metrics) AddRows(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(kind).Add(float64(n))
}
