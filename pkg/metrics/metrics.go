package metrics

import (
	"strings"

	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is a flexible Prometheus metrics collector keyed by metric name.
// Metrics are namespaced with the service name.
type Metrics struct {
	Registry    *prometheus.Registry
	namespace   string
	counters    map[string]prometheus.Counter
	counterVecs map[string]*prometheus.CounterVec
	histograms  map[string]prometheus.Histogram
	gauges      map[string]prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with Go runtime and process collectors registered.
func NewMetrics(serviceName string) interfaces.Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:    registry,
		namespace:   sanitizeNamespace(serviceName),
		counters:    make(map[string]prometheus.Counter),
		counterVecs: make(map[string]*prometheus.CounterVec),
		histograms:  make(map[string]prometheus.Histogram),
		gauges:      make(map[string]prometheus.Gauge),
	}
}

// GetRegistry returns the Prometheus registry.
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.Registry
}

// RegisterCounter registers a new counter metric.
func (m *Metrics) RegisterCounter(name, help string) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	})
	m.Registry.MustRegister(counter)
	m.counters[name] = counter
}

// RegisterCounterVec registers a new counter metric with labels.
func (m *Metrics) RegisterCounterVec(name, help string, labels []string) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	m.Registry.MustRegister(counterVec)
	m.counterVecs[name] = counterVec
}

// RegisterHistogram registers a new histogram metric.
func (m *Metrics) RegisterHistogram(name, help string, buckets []float64) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	m.Registry.MustRegister(histogram)
	m.histograms[name] = histogram
}

// RegisterGauge registers a new gauge metric.
func (m *Metrics) RegisterGauge(name, help string) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	})
	m.Registry.MustRegister(gauge)
	m.gauges[name] = gauge
}

// IncCounter increments a counter by 1. Unknown names are ignored.
func (m *Metrics) IncCounter(name string) {
	if counter, ok := m.counters[name]; ok {
		counter.Inc()
	}
}

// IncCounterVec increments a counter in a CounterVec with labels.
func (m *Metrics) IncCounterVec(name string, labels ...string) {
	if counterVec, ok := m.counterVecs[name]; ok {
		counterVec.WithLabelValues(labels...).Inc()
	}
}

// ObserveHistogram observes a value in a histogram.
func (m *Metrics) ObserveHistogram(name string, value float64) {
	if histogram, ok := m.histograms[name]; ok {
		histogram.Observe(value)
	}
}

// SetGauge sets a gauge to a specific value.
func (m *Metrics) SetGauge(name string, value float64) {
	if gauge, ok := m.gauges[name]; ok {
		gauge.Set(value)
	}
}

// sanitizeNamespace replaces characters Prometheus does not allow in metric names.
func sanitizeNamespace(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
