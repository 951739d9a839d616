package observability

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Metrics is the sink the ledger reports to. PrometheusMetrics backs it in
// the binaries; InMemoryMetrics backs it in tests.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// Metric names used across the ledger.
const (
	MetricOperationDuration = "ledger.operation.duration"
	MetricOperationErrors   = "ledger.operation.errors"

	MetricSubscriptionsAssigned = "ledger.subscriptions.assigned"
	MetricSubscriptionsRevoked  = "ledger.subscriptions.revoked"
	MetricSubscriptionsExpired  = "ledger.subscriptions.expired"

	MetricCacheHits   = "ledger.cache.hits"
	MetricCacheMisses = "ledger.cache.misses"

	MetricOutboxPublished = "ledger.outbox.published"
	MetricOutboxFailed    = "ledger.outbox.failed"
	MetricOutboxDead      = "ledger.outbox.dead"
	MetricOutboxLag       = "ledger.outbox.lag_seconds"

	MetricJobRuns = "ledger.jobs.runs"
)

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)         {}
func (NoopMetrics) Gauge(string, float64, ...Tag)         {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in memory. A series is a name plus its
// tags; tag order does not matter.
type InMemoryMetrics struct {
	mu     sync.Mutex
	series map[string]*memSeries
}

type memSeries struct {
	count     int64
	gauge     float64
	durations []time.Duration
}

// NewInMemoryMetrics creates an empty sink.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{series: make(map[string]*memSeries)}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.update(name, tags, func(s *memSeries) { s.count += value })
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.update(name, tags, func(s *memSeries) { s.gauge = value })
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.update(name, tags, func(s *memSeries) { s.durations = append(s.durations, duration) })
}

// Count returns a counter's total.
func (m *InMemoryMetrics) Count(name string, tags ...Tag) int64 {
	var n int64
	m.read(name, tags, func(s *memSeries) { n = s.count })
	return n
}

// Last returns a gauge's latest value.
func (m *InMemoryMetrics) Last(name string, tags ...Tag) float64 {
	var v float64
	m.read(name, tags, func(s *memSeries) { v = s.gauge })
	return v
}

// Durations returns every recorded timing.
func (m *InMemoryMetrics) Durations(name string, tags ...Tag) []time.Duration {
	var out []time.Duration
	m.read(name, tags, func(s *memSeries) { out = slices.Clone(s.durations) })
	return out
}

func (m *InMemoryMetrics) update(name string, tags []Tag, fn func(*memSeries)) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[key]
	if !ok {
		s = &memSeries{}
		m.series[key] = s
	}
	fn(s)
}

func (m *InMemoryMetrics) read(name string, tags []Tag, fn func(*memSeries)) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.series[key]; ok {
		fn(s)
	}
}

// seriesKey renders name{k1=v1,k2=v2} with keys sorted.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	pairs := make([]string, len(tags))
	for i, t := range tags {
		pairs[i] = t.Key + "=" + t.Value
	}
	slices.Sort(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}
