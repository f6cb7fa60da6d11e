package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	loginAttempts *prometheus.CounterVec
	requests      *prometheus.HistogramVec
	tableRows     *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dlux",
			Name:      "login_attempts_total",
			Help:      "Login form submissions by outcome.",
		}, []string{"result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dlux",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dlux",
			Name:      "table_rows",
			Help:      "Rows in the last render of a table.",
		}, []string{"table"}),
	}
	m.registry.MustRegister(
		m.loginAttempts,
		m.requests,
		m.tableRows,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) LoginAttempt(result string) {
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) TableRendered(table string, rows int) {
	m.tableRows.WithLabelValues(table).Set(float64(rows))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
