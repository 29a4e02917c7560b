// Package metrics emits export pipeline metrics through a small tag-based Sink.
package metrics

import "time"

// Sink describes the minimal interface required to emit tagged metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// NoopSink discards everything.
type NoopSink struct{}

// Count implements Sink.
func (NoopSink) Count(string, int64, map[string]string) {}

// Gauge implements Sink.
func (NoopSink) Gauge(string, float64, map[string]string) {}

// Timing implements Sink.
func (NoopSink) Timing(string, time.Duration, map[string]string) {}
