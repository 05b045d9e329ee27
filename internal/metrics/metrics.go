// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fintrack_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fintrack_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fintrack_transactions_total",
		Help: "Transaction mutations by operation and type.",
	}, []string{"operation", "type"})

	budgetAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintrack_budget_alerts_published_total",
		Help: "Budget alert events published to the broker.",
	})

	recurringExecutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintrack_recurring_executions_total",
		Help: "Transactions materialized from recurring templates.",
	})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CountTransaction records a transaction mutation.
func CountTransaction(operation, txnType string) {
	transactionsTotal.WithLabelValues(operation, txnType).Inc()
}

// CountBudgetAlert records one published budget alert event.
func CountBudgetAlert() {
	budgetAlertsTotal.Inc()
}

// CountRecurringExecution records one materialized recurring transaction.
func CountRecurringExecution() {
	recurringExecutionsTotal.Inc()
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
