// Package metrics exposes Prometheus metrics for the insights service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Reload results.
const (
	ReloadInstalled = "installed"
	ReloadRejected  = "rejected"
)

const unmatchedRoute = "unmatched"

// Registry owns the service's collectors on a private registry.
type Registry struct {
	reg             *prometheus.Registry
	Queries         *prometheus.CounterVec
	QueriesScreened prometheus.Counter
	DatasetReloads  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DatasetRows     *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_queries_total",
		Help: "Questions answered, by dispatcher category.",
	}, []string{"category"})
	screened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "insights_query_screened_total",
		Help: "Questions flagged by SQL injection screening.",
	})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_dataset_reloads_total",
		Help: "Dataset load attempts, by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insights_request_duration_seconds",
		Help:    "HTTP request latency, by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "insights_dataset_rows",
		Help: "Rows in the installed dataset snapshot, by table.",
	}, []string{"table"})

	r.MustRegister(queries, screened, reloads, duration, rows)
	return &Registry{
		reg:             r,
		Queries:         queries,
		QueriesScreened: screened,
		DatasetReloads:  reloads,
		RequestDuration: duration,
		DatasetRows:     rows,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// DatasetLoaded records a load attempt and, when a snapshot was installed,
// its row counts.
func (r *Registry) DatasetLoaded(ds *models.Dataset, installed bool, _ error) {
	if !installed {
		r.DatasetReloads.WithLabelValues(ReloadRejected).Inc()
		return
	}
	r.DatasetReloads.WithLabelValues(ReloadInstalled).Inc()
	for table, n := range ds.RowCounts() {
		r.DatasetRows.WithLabelValues(string(table)).Set(float64(n))
	}
}

// Instrument observes request latency labelled by the ServeMux pattern that
// handled the request. It must wrap the mux itself so the pattern is set.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		route := req.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		r.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
