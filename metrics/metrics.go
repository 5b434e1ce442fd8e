package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	VaultOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yield_battle_vault_operations_total",
			Help: "Total number of vault operations by result code",
		},
		[]string{"op", "code"},
	)

	VaultValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yield_battle_vault_value_tokens",
			Help: "Vault held value in whole tokens by bucket",
		},
		[]string{"bucket"}, // "principal", "prize_pools", "reward_reserve", "outstanding_yield"
	)

	NotifyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yield_battle_vault_notify_failures_total",
			Help: "Post-commit leaderboard or profile updates which failed",
		},
		[]string{"target"},
	)

	AuditRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yield_battle_vault_audit_runs_total",
			Help: "Conservation audits by outcome",
		},
		[]string{"result"}, // "ok", "drift", "error"
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yield_battle_vault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yield_battle_vault_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveOperation counts one vault operation. code is "ok" for success.
func ObserveOperation(op, code string) {
	VaultOperationsTotal.WithLabelValues(op, code).Inc()
}

// SetVaultValue publishes an 18 decimal amount as whole tokens.
func SetVaultValue(bucket string, amount decimal.Decimal) {
	VaultValue.WithLabelValues(bucket).Set(amount.Shift(-18).InexactFloat64())
}

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
