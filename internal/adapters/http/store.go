package http

import (
	"sync"

	"github.com/melih/slipway/internal/core/domain"
)

// RunStore keeps finished runs in memory for the API to report on.
// Runs are append-only; the pipeline never mutates a run after handing
// it over.
type RunStore struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Run
	order []string
}

func NewRunStore() *RunStore {
	return &RunStore{byID: make(map[string]*domain.Run)}
}

func (s *RunStore) Add(run *domain.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[run.ID] = run
	s.order = append(s.order, run.ID)
}

func (s *RunStore) Get(id string) (*domain.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.byID[id]
	return run, ok
}

// List returns all runs, most recent first.
func (s *RunStore) List() []*domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out
}
