package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/async-export/internal/observability/errors"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDropped = "dropped"
	ResultNoop    = "noop"
)

// ExportMetric captures details about an export lifecycle event for metric emission.
type ExportMetric struct {
	Handler    string
	Transition string
	Result     string
	Duration   time.Duration
	Rows       int64
	Err        error
}

// EmitExportLifecycle emits standardised export lifecycle metrics.
func EmitExportLifecycle(sink Sink, in ExportMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"handler":     in.Handler,
		"transition":  in.Transition,
		"result":      in.Result,
		"error_class": "",
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("export.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("export.duration", in.Duration, CloneTags(tags))
	}
	if in.Rows > 0 {
		sink.Count("export.rows", in.Rows, map[string]string{"handler": in.Handler})
	}
}

// EmitQueueDepth records the intake queue length and capacity.
func EmitQueueDepth(sink Sink, length, capacity int) {
	if sink == nil {
		return
	}
	sink.Gauge("export.queue.depth", float64(length), nil)
	sink.Gauge("export.queue.capacity", float64(capacity), nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
