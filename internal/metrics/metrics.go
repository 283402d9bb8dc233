// Package metrics provides Prometheus instrumentation for the risk index service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suirisk",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "suirisk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SurfluxRequestsTotal counts upstream market data calls by endpoint and result.
	SurfluxRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suirisk",
			Name:      "surflux_requests_total",
			Help:      "Total Surflux API calls by endpoint and result (ok, error, circuit_open).",
		},
		[]string{"endpoint", "result"},
	)

	// PoolSyncsTotal counts pool list sync runs by result.
	PoolSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suirisk",
			Name:      "pool_syncs_total",
			Help:      "Total pool list sync operations by result.",
		},
		[]string{"result"},
	)

	// MetricSnapshotsTotal counts pool metric snapshots computed by result.
	MetricSnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suirisk",
			Name:      "metric_snapshots_total",
			Help:      "Total pool risk metric snapshots by result.",
		},
		[]string{"result"},
	)

	// PoolRiskScore observes the distribution of computed pool risk scores.
	PoolRiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "suirisk",
			Name:      "pool_risk_score",
			Help:      "Distribution of computed pool risk scores (0-100).",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100},
		},
	)

	// IdentityMintPayloadsTotal counts mint payload requests.
	IdentityMintPayloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "suirisk",
		Name:      "identity_mint_payloads_total",
		Help:      "Total risk identity mint payloads issued.",
	})

	// IdentitiesStoredTotal counts stored mint records.
	IdentitiesStoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "suirisk",
		Name:      "identities_stored_total",
		Help:      "Total risk identity mint records stored.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "suirisk",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "suirisk", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "suirisk", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "suirisk", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "suirisk", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SurfluxRequestsTotal,
		PoolSyncsTotal,
		MetricSnapshotsTotal,
		PoolRiskScore,
		IdentityMintPayloadsTotal,
		IdentitiesStoredTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
