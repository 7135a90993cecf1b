package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leakwatch"

// Fetch and query results.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultFailed      = "failed"
)

// Persistence kinds.
const (
	PersistArchive  = "archive"
	PersistCSV      = "csv"
	PersistMarkdown = "markdown"
	PersistHistory  = "history"
	PersistIndex    = "index"
)

// Metrics holds all Prometheus collectors of the monitor.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal       *prometheus.CounterVec
	QueriesTotal       *prometheus.CounterVec
	LeaksTotal         *prometheus.CounterVec
	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	NotificationsTotal *prometheus.CounterVec
	PersistenceTotal   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "The total number of candidate page fetches",
		}, []string{"result"}),
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "The total number of search backend queries",
		}, []string{"result"}),
		LeaksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaks_detected_total",
			Help:      "The total number of leak records produced",
		}, []string{"company"}),
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "company_scans_total",
			Help:      "The total number of company scans by outcome",
		}, []string{"outcome"}), // leak_found, clean, skipped, failed
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "company_scan_duration_seconds",
			Help:      "Duration of a full company scan",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "The total number of notification attempts",
		}, []string{"sink", "result"}),
		PersistenceTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_writes_total",
			Help:      "The total number of persistence writes",
		}, []string{"kind", "result"}), // archive, csv, markdown, history, index
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncFetch counts one fetch.
func (m *Metrics) IncFetch(result string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
}

// IncQuery counts one search backend query.
func (m *Metrics) IncQuery(result string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(result).Inc()
}

// AddLeaks counts leak records for company.
func (m *Metrics) AddLeaks(company string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LeaksTotal.WithLabelValues(company).Add(float64(n))
}

// ObserveScan records the outcome and duration of one company scan.
// Skipped scans carry no duration.
func (m *Metrics) ObserveScan(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.ScanDuration.Observe(d.Seconds())
	}
}

// IncNotification counts one notification attempt.
func (m *Metrics) IncNotification(sink string, err error) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(sink, resultOf(err)).Inc()
}

// IncPersistence counts one persistence write.
func (m *Metrics) IncPersistence(kind string, err error) {
	if m == nil {
		return
	}
	m.PersistenceTotal.WithLabelValues(kind, resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}
