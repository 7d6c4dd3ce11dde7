package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_http_requests_total",
		Help: "Total number of HTTP requests handled, by method, route and status",
	}, []string{"method", "route", "status"})
	auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_audit_entries_total",
		Help: "Audit entries by outcome (written, failed, dropped)",
	}, []string{"result"})
	imageFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_image_fetches_total",
		Help: "Remote image downloads by outcome (ok, error)",
	}, []string{"result"})
	assetsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pokedex_assets_swept_total",
		Help: "Total number of orphaned image files removed by the asset janitor",
	})
)

// Register registers Prometheus collectors. Call once per registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(httpRequestsTotal, auditEntriesTotal, imageFetchesTotal, assetsSweptTotal)
}

// ObserveRequest counts one handled HTTP request.
func ObserveRequest(method, route string, status int) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// IncAuditWritten increments the persisted audit entries counter.
func IncAuditWritten() { auditEntriesTotal.WithLabelValues("written").Inc() }

// IncAuditFailed increments the failed audit writes counter.
func IncAuditFailed() { auditEntriesTotal.WithLabelValues("failed").Inc() }

// IncAuditDropped increments the audit entries dropped on a full queue.
func IncAuditDropped() { auditEntriesTotal.WithLabelValues("dropped").Inc() }

// IncImageFetch counts one image download attempt.
func IncImageFetch(ok bool) {
	if ok {
		imageFetchesTotal.WithLabelValues("ok").Inc()
		return
	}
	imageFetchesTotal.WithLabelValues("error").Inc()
}

// AddAssetsSwept adds n removed asset files.
func AddAssetsSwept(n int) { assetsSweptTotal.Add(float64(n)) }
