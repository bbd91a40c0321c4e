package nexpose

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts API traffic for one run. A nil *Metrics records nothing
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	pages    prometheus.Counter
	retries  prometheus.Counter
}

// NewMetrics registers the client collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexpose_api_requests_total",
				Help: "Nexpose API requests by HTTP method and status code.",
			},
			[]string{"method", "code"},
		),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexpose_api_pages_fetched_total",
			Help: "Pages fetched from paginated Nexpose list endpoints.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexpose_api_retries_total",
			Help: "Nexpose API requests retried after a transient failure.",
		}),
	}
	m.registry.MustRegister(m.requests, m.pages, m.retries)
	return m
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) observeRequest(method string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) observePage() {
	if m == nil {
		return
	}
	m.pages.Inc()
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
