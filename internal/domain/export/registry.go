package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrHandlerNotFound is returned when no handler is registered under a name.
var ErrHandlerNotFound = errors.New("export handler not found")

// Handler produces the rows for one kind of export from the request's opaque params.
type Handler interface {
	Export(ctx context.Context, params string) ([]Row, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, params string) ([]Row, error)

// Export implements Handler.
func (f HandlerFunc) Export(ctx context.Context, params string) ([]Row, error) {
	return f(ctx, params)
}

// Closer is an optional Handler extension invoked once the worker is done with a handler's rows.
type Closer interface {
	Close() error
}

// Registry maps handler names to implementations. Handlers are registered at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under name. Blank names, nil handlers and duplicates are rejected.
func (r *Registry) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("handler name is required")
	}
	if h == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register that panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Resolve returns the handler registered under name.
//
//nolint:ireturn // handlers are heterogeneous by nature.
func (r *Registry) Resolve(name string) (Handler, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: blank name", ErrHandlerNotFound)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	return h, nil
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
