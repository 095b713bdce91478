package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Ledger metrics
	ledgerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total number of ledger contract calls by outcome",
		},
		[]string{"function", "status"},
	)

	ledgerTransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "Duration of ledger contract call submissions in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"function"},
	)

	confirmationPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_confirmation_polls_total",
			Help: "Total number of transaction confirmation poll attempts",
		},
	)

	// Authorization metrics
	accessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Total number of authorization decisions by outcome and answering store",
		},
		[]string{"allowed", "source"},
	)

	grantOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_operations_total",
			Help: "Total number of grant/revoke/mint operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Storage metrics
	storageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Total number of local record store failures",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ledgerTransactionsTotal,
		ledgerTransactionDuration,
		confirmationPollsTotal,
		accessDecisionsTotal,
		grantOperationsTotal,
		storageErrorsTotal,
	)
}

// RecordHTTPRequest records an HTTP request metric
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordLedgerTransaction records a contract call outcome
func RecordLedgerTransaction(function, status string) {
	ledgerTransactionsTotal.WithLabelValues(function, status).Inc()
}

// RecordLedgerTransactionDuration records a contract call submission duration
func RecordLedgerTransactionDuration(function string, seconds float64) {
	ledgerTransactionDuration.WithLabelValues(function).Observe(seconds)
}

// RecordConfirmationPoll counts a confirmation poll attempt
func RecordConfirmationPoll() {
	confirmationPollsTotal.Inc()
}

// RecordAccessDecision records an authorization decision and which store
// answered it
func RecordAccessDecision(allowed bool, source string) {
	label := "false"
	if allowed {
		label = "true"
	}
	accessDecisionsTotal.WithLabelValues(label, source).Inc()
}

// RecordGrantOperation records the tagged outcome of a mutating
// authorization action
func RecordGrantOperation(operation, outcome string) {
	grantOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordStorageError counts a local record store failure
func RecordStorageError(operation string) {
	storageErrorsTotal.WithLabelValues(operation).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
