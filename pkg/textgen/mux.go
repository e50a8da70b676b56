package textgen

import (
	"context"
	"fmt"
	"sync"
)

var _ Completer = (*Mux)(nil)

// DefaultMux is the default completer multiplexer.
var DefaultMux = NewMux()

// Handle registers a completer for the given name with the default mux.
func Handle(name string, c Completer) error {
	return DefaultMux.Handle(name, c)
}

// Complete completes a request using the default mux.
func Complete(ctx context.Context, req Request) (string, error) {
	return DefaultMux.Complete(ctx, req)
}

// Mux is a completer multiplexer. It routes a request to the completer
// registered under the request's model name.
type Mux struct {
	mu         sync.RWMutex
	completers map[string]Completer
}

// NewMux creates a new completer multiplexer.
func NewMux() *Mux {
	return &Mux{
		completers: make(map[string]Completer),
	}
}

// Handle registers a completer for the given name.
// Returns an error if a completer is already registered for the name.
func (m *Mux) Handle(name string, c Completer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completers[name]; ok {
		return fmt.Errorf("textgen: completer already registered for %s", name)
	}
	m.completers[name] = c
	return nil
}

// HandleFunc registers a CompleteFunc for the given name.
func (m *Mux) HandleFunc(name string, f CompleteFunc) error {
	return m.Handle(name, f)
}

// Complete routes the request to the completer registered for req.Model.
func (m *Mux) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.RLock()
	c, ok := m.completers[req.Model]
	m.mu.RUnlock()
	if !ok || c == nil {
		return "", fmt.Errorf("textgen: completer not found for %s", req.Model)
	}
	return c.Complete(ctx, req)
}
