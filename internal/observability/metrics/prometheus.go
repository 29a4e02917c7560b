package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromSinkOptions configures NewPromSink.
type PromSinkOptions struct {
	// Namespace prefixes every metric name (e.g. "async_export").
	Namespace string
	// Registerer defaults to a fresh registry.
	Registerer prometheus.Registerer
	// Gatherer is used by Handler; defaults to Registerer when it is a *prometheus.Registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// PromSink adapts Sink calls onto Prometheus vectors created on first use.
// The label set of a metric is fixed by its first emission; later calls fill
// missing labels with "" and drop unknown ones.
type PromSink struct {
	namespace string
	reg       prometheus.Registerer
	gatherer  prometheus.Gatherer
	logger    *slog.Logger

	mu         sync.Mutex
	counters   map[string]*vec[*prometheus.CounterVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
	histograms map[string]*vec[*prometheus.HistogramVec]
}

type vec[T any] struct {
	labels []string
	v      T
}

var _ Sink = (*PromSink)(nil)

// NewPromSink creates a Prometheus-backed Sink.
func NewPromSink(opts PromSinkOptions) *PromSink {
	reg := opts.Registerer
	gatherer := opts.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	}
	if gatherer == nil {
		if g, ok := reg.(prometheus.Gatherer); ok {
			gatherer = g
		} else {
			gatherer = prometheus.DefaultGatherer
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PromSink{
		namespace:  sanitizeName(opts.Namespace),
		reg:        reg,
		gatherer:   gatherer,
		logger:     logger.With("component", "prometheus_sink"),
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
	}
}

// Handler serves the registry in Prometheus text format.
func (s *PromSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

// Count implements Sink.
func (s *PromSink) Count(name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		labels := sortedKeys(tags)
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      sanitizeName(name) + "_total",
			Help:      "Count of " + name,
		}, labels)
		if !s.register(name, cv) {
			return
		}
		c = &vec[*prometheus.CounterVec]{labels: labels, v: cv}
		s.counters[name] = c
	}
	c.v.WithLabelValues(labelValues(c.labels, tags)...).Add(float64(value))
}

// Gauge implements Sink.
func (s *PromSink) Gauge(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gauges[name]
	if !ok {
		labels := sortedKeys(tags)
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      sanitizeName(name),
			Help:      "Current value of " + name,
		}, labels)
		if !s.register(name, gv) {
			return
		}
		g = &vec[*prometheus.GaugeVec]{labels: labels, v: gv}
		s.gauges[name] = g
	}
	g.v.WithLabelValues(labelValues(g.labels, tags)...).Set(value)
}

// Timing implements Sink. Durations are observed in seconds.
func (s *PromSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[name]
	if !ok {
		labels := sortedKeys(tags)
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      sanitizeName(name) + "_seconds",
			Help:      "Duration of " + name,
			Buckets:   prometheus.DefBuckets,
		}, labels)
		if !s.register(name, hv) {
			return
		}
		h = &vec[*prometheus.HistogramVec]{labels: labels, v: hv}
		s.histograms[name] = h
	}
	h.v.WithLabelValues(labelValues(h.labels, tags)...).Observe(value.Seconds())
}

func (s *PromSink) register(name string, c prometheus.Collector) bool {
	if err := s.reg.Register(c); err != nil {
		s.logger.Warn("metric registration failed", "metric", name, "error", err)
		return false
	}
	return true
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if k = sanitizeName(k); k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func labelValues(labels []string, tags map[string]string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = tags[l]
	}
	return out
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
}
