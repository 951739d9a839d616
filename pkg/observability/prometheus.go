package observability

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on a Prometheus registry. Dotted
// ledger names become underscored Prometheus names ("ledger.outbox.published"
// becomes "ledger_outbox_published_total") and tag keys become label names.
// A metric's label set is fixed by its first use.
type PrometheusMetrics struct {
	reg    promclient.Registerer
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]*promclient.CounterVec
	gauges     map[string]*promclient.GaugeVec
	histograms map[string]*promclient.HistogramVec
}

// NewPrometheusMetrics creates a sink registering into reg, or the default
// registerer when reg is nil.
func NewPrometheusMetrics(reg promclient.Registerer, logger *slog.Logger) *PrometheusMetrics {
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrometheusMetrics{
		reg:        reg,
		logger:     logger,
		counters:   make(map[string]*promclient.CounterVec),
		gauges:     make(map[string]*promclient.GaugeVec),
		histograms: make(map[string]*promclient.HistogramVec),
	}
}

// Counter adds value to a counter.
func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	if value < 0 {
		return
	}
	vec := m.counterVec(name, tags)
	if vec == nil {
		return
	}
	if c, err := vec.GetMetricWithLabelValues(labelValues(tags)...); err == nil {
		c.Add(float64(value))
	}
}

// Gauge sets a gauge.
func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	vec := m.gaugeVec(name, tags)
	if vec == nil {
		return
	}
	if g, err := vec.GetMetricWithLabelValues(labelValues(tags)...); err == nil {
		g.Set(value)
	}
}

// Histogram observes value.
func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	vec := m.histogramVec(name, tags)
	if vec == nil {
		return
	}
	if h, err := vec.GetMetricWithLabelValues(labelValues(tags)...); err == nil {
		h.Observe(value)
	}
}

// Timing observes duration in seconds.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name+".seconds", duration.Seconds(), tags...)
}

func (m *PrometheusMetrics) counterVec(name string, tags []Tag) *promclient.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.counters[name]; ok {
		return vec
	}
	vec := promclient.NewCounterVec(promclient.CounterOpts{
		Name: promName(name) + "_total",
		Help: "Ledger counter " + name + ".",
	}, labelNames(tags))
	if err := m.reg.Register(vec); err != nil {
		var are promclient.AlreadyRegisteredError
		if !errors.As(err, &are) {
			m.logger.Warn("failed to register counter", "metric", name, "error", err)
			return nil
		}
		existing, ok := are.ExistingCollector.(*promclient.CounterVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	m.counters[name] = vec
	return vec
}

func (m *PrometheusMetrics) gaugeVec(name string, tags []Tag) *promclient.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.gauges[name]; ok {
		return vec
	}
	vec := promclient.NewGaugeVec(promclient.GaugeOpts{
		Name: promName(name),
		Help: "Ledger gauge " + name + ".",
	}, labelNames(tags))
	if err := m.reg.Register(vec); err != nil {
		var are promclient.AlreadyRegisteredError
		if !errors.As(err, &are) {
			m.logger.Warn("failed to register gauge", "metric", name, "error", err)
			return nil
		}
		existing, ok := are.ExistingCollector.(*promclient.GaugeVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	m.gauges[name] = vec
	return vec
}

func (m *PrometheusMetrics) histogramVec(name string, tags []Tag) *promclient.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.histograms[name]; ok {
		return vec
	}
	vec := promclient.NewHistogramVec(promclient.HistogramOpts{
		Name:    promName(name),
		Help:    "Ledger histogram " + name + ".",
		Buckets: promclient.DefBuckets,
	}, labelNames(tags))
	if err := m.reg.Register(vec); err != nil {
		var are promclient.AlreadyRegisteredError
		if !errors.As(err, &are) {
			m.logger.Warn("failed to register histogram", "metric", name, "error", err)
			return nil
		}
		existing, ok := are.ExistingCollector.(*promclient.HistogramVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	m.histograms[name] = vec
	return vec
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = promName(t.Key)
	}
	return names
}

func labelValues(tags []Tag) []string {
	values := make([]string, len(tags))
	for i, t := range tags {
		values[i] = t.Value
	}
	return values
}
