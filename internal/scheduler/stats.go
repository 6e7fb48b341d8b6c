package scheduler

import (
	"sync"
	"sync/atomic"
)

// Stats is a point-in-time view of the loop counters.
type Stats struct {
	Ticks     int64
	Executed  int64
	Unknown   int64
	Failed    int64
	LastType  string
	LastError string
}

type stats struct {
	ticks    atomic.Int64
	executed atomic.Int64
	unknown  atomic.Int64
	failed   atomic.Int64

	mu        sync.Mutex
	lastType  string
	lastError string
}

func (s *stats) setLastType(t string) {
	s.mu.Lock()
	s.lastType = t
	s.mu.Unlock()
}

func (s *stats) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// Stats is safe to call from any goroutine while Run is active.
func (s *Scheduler) Stats() Stats {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	return Stats{
		Ticks:     s.stats.ticks.Load(),
		Executed:  s.stats.executed.Load(),
		Unknown:   s.stats.unknown.Load(),
		Failed:    s.stats.failed.Load(),
		LastType:  s.stats.lastType,
		LastError: s.stats.lastError,
	}
}
