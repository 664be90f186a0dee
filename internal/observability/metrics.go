package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "superstore"

// Metrics owns a private registry so that tests can build as many as
// they like without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	datasetRows     prometheus.Gauge
	datasetDropped  prometheus.Gauge
	datasetLoads    *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	computeDuration prometheus.Histogram
	filteredRows    prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		datasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Orders held by the loaded dataset.",
		}),
		datasetDropped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_dropped_rows",
			Help:      "Rows dropped at load because Order Date was unparseable.",
		}),
		datasetLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by result.",
		}, []string{"result"}),
		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent reading and parsing the CSV.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		computeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_compute_duration_seconds",
			Help:      "Time spent filtering and aggregating one dashboard.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		filteredRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_filtered_rows",
			Help:      "Rows in the filtered view per computation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveLoad(rows, dropped int, duration time.Duration, err error) {
	m.loadDuration.Observe(duration.Seconds())
	if err != nil {
		m.datasetLoads.WithLabelValues("error").Inc()
		return
	}
	m.datasetLoads.WithLabelValues("ok").Inc()
	m.datasetRows.Set(float64(rows))
	m.datasetDropped.Set(float64(dropped))
}

func (m *Metrics) ObserveCompute(rows int, duration time.Duration) {
	m.computeDuration.Observe(duration.Seconds())
	m.filteredRows.Observe(float64(rows))
}
