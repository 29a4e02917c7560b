// Package job contains the in-process hand-off between export admission and the export worker.
package job

import (
	"context"
	"sync"

	"github.com/target/async-export/internal/domain/model"
)

// DefaultIntakeCapacity is the queue capacity used when none is configured.
const DefaultIntakeCapacity = 200

// IntakeQueue is a bounded FIFO of export requests shared by the gateway and the worker.
// Offer never blocks; Take blocks until an item arrives or its context ends.
// It is safe for concurrent use.
type IntakeQueue struct {
	mu       sync.Mutex
	items    []model.ExportRequest
	capacity int
	queued   map[string]int
	inFlight map[string]struct{}

	// ready holds at most one wake-up token for a blocked Take.
	ready chan struct{}
}

// NewIntakeQueue creates an empty queue. A capacity below 1 uses DefaultIntakeCapacity.
func NewIntakeQueue(capacity int) *IntakeQueue {
	if capacity < 1 {
		capacity = DefaultIntakeCapacity
	}
	return &IntakeQueue{
		items:    make([]model.ExportRequest, 0, capacity),
		capacity: capacity,
		queued:   make(map[string]int),
		inFlight: make(map[string]struct{}),
		ready:    make(chan struct{}, 1),
	}
}

// Offer appends req unless the queue is full. It reports whether req was accepted.
func (q *IntakeQueue) Offer(req model.ExportRequest) bool {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, req)
	q.queued[req.JobID]++
	q.mu.Unlock()

	q.signal()
	return true
}

// Take removes and returns the oldest request, waiting while the queue is empty.
// The returned job stays tracked as in flight until Done is called for it.
func (q *IntakeQueue) Take(ctx context.Context) (model.ExportRequest, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items[0] = model.ExportRequest{}
			q.items = q.items[1:]
			q.untrackQueued(req.JobID)
			q.inFlight[req.JobID] = struct{}{}
			more := len(q.items) > 0
			q.mu.Unlock()

			if more {
				q.signal()
			}
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return model.ExportRequest{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Reset atomically replaces the queue contents and capacity.
// Capacity is raised to len(initial) when smaller; below 1 it falls back to DefaultIntakeCapacity.
func (q *IntakeQueue) Reset(capacity int, initial []model.ExportRequest) {
	if capacity < 1 {
		capacity = DefaultIntakeCapacity
	}
	capacity = max(capacity, len(initial))

	items := make([]model.ExportRequest, len(initial), capacity)
	copy(items, initial)
	queued := make(map[string]int, len(initial))
	for _, req := range initial {
		queued[req.JobID]++
	}

	q.mu.Lock()
	q.items = items
	q.capacity = capacity
	q.queued = queued
	q.mu.Unlock()

	if len(items) > 0 {
		q.signal()
	}
}

// Done clears the in-flight mark set by Take.
func (q *IntakeQueue) Done(jobID string) {
	q.mu.Lock()
	delete(q.inFlight, jobID)
	q.mu.Unlock()
}

// Tracked reports whether jobID is queued or currently held by the worker.
func (q *IntakeQueue) Tracked(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queued[jobID] > 0 {
		return true
	}
	_, ok := q.inFlight[jobID]
	return ok
}

// Len returns the number of queued requests.
func (q *IntakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the current capacity.
func (q *IntakeQueue) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}

// Snapshot returns a copy of the queued requests in FIFO order.
func (q *IntakeQueue) Snapshot() []model.ExportRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.ExportRequest, len(q.items))
	copy(out, q.items)
	return out
}

func (q *IntakeQueue) untrackQueued(jobID string) {
	if n := q.queued[jobID]; n > 1 {
		q.queued[jobID] = n - 1
		return
	}
	delete(q.queued, jobID)
}

func (q *IntakeQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
