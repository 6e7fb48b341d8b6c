// Package lifecycle runs shutdown work when the scheduler stops.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stigoleg/coffeine/internal/logx"
)

const DefaultTimeout = 5 * time.Second

// Resource is something that must be released on shutdown.
type Resource interface {
	Cleanup() error
	Name() string
}

type funcResource struct {
	name string
	fn   func() error
}

func (f *funcResource) Cleanup() error { return f.fn() }
func (f *funcResource) Name() string   { return f.name }

// Manager runs registered resources once, in registration order, bounded by
// a timeout. A resource that panics is reported and the rest still run.
type Manager struct {
	mu        sync.Mutex
	resources []Resource
	timeout   time.Duration
	once      sync.Once
	errs      []error
	log       logx.Logger
}

func NewManager(timeout time.Duration, log logx.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{timeout: timeout, log: log}
}

func (m *Manager) Register(r Resource) {
	if r == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, r)
}

func (m *Manager) RegisterFunc(name string, fn func() error) {
	if fn == nil {
		return
	}
	m.Register(&funcResource{name: name, fn: fn})
}

// Execute performs cleanup. Only the first call does any work; later calls
// return the same errors.
func (m *Manager) Execute() []error {
	m.once.Do(func() {
		m.errs = m.executeWithTimeout()
	})
	return m.errs
}

func (m *Manager) executeWithTimeout() []error {
	m.mu.Lock()
	resources := make([]Resource, len(m.resources))
	copy(resources, m.resources)
	m.mu.Unlock()

	if len(resources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	done := make(chan struct{})
	var errs []error
	var mu sync.Mutex

	go func() {
		defer close(done)
		for _, r := range resources {
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("%s: panic during cleanup: %v", r.Name(), rec))
						mu.Unlock()
						m.log.Error("cleanup panicked", logx.String("resource", r.Name()), logx.Any("panic", rec))
					}
				}()

				if err := r.Cleanup(); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
					mu.Unlock()
					m.log.Warn("cleanup failed", logx.String("resource", r.Name()), logx.Err(err))
					return
				}
				m.log.Debug("cleaned up", logx.String("resource", r.Name()))
			}()
		}
	}()

	select {
	case <-done:
		return errs
	case <-ctx.Done():
		m.log.Warn("cleanup timed out; some resources may not have been released", logx.Duration("timeout", m.timeout))
		mu.Lock()
		defer mu.Unlock()
		return append(append([]error(nil), errs...), errors.New("cleanup timeout exceeded"))
	}
}
