package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Guard outcomes.
const (
	OutcomeAllow           = "allow"
	OutcomeRedirectLogin   = "redirect_login"
	OutcomeRedirectHome    = "redirect_home"
	OutcomeBypass          = "bypass"
	OutcomeInitTimeoutOpen = "init_timeout_open"
)

// Metrics holds Prometheus collectors for the client.
type Metrics struct {
	registry *prometheus.Registry

	GuardDecisions    *prometheus.CounterVec
	BackendRequestsMs *prometheus.HistogramVec
	CustomersCachedN  prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the process
// and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sprinkler_route_guard_decisions_total",
			Help: "Route guard decisions by route and outcome",
		}, []string{"route", "outcome"}),
		BackendRequestsMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sprinkler_backend_request_duration_ms",
			Help:    "Duration of hosted backend requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation", "table", "status"}),
		CustomersCachedN: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sprinkler_customers_cached",
			Help: "Number of customers held in the local collection",
		}),
	}
}

func (m *Metrics) GuardDecision(route, outcome string) {
	m.GuardDecisions.WithLabelValues(route, outcome).Inc()
}

// ObserveRequest records a backend call. status is 0 when no response arrived.
func (m *Metrics) ObserveRequest(op, table string, status int, elapsed time.Duration) {
	if table == "" {
		table = "-"
	}
	m.BackendRequestsMs.WithLabelValues(op, table, strconv.Itoa(status)).Observe(float64(elapsed.Microseconds()) / 1000)
}

func (m *Metrics) CustomersCached(n int) {
	m.CustomersCachedN.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
