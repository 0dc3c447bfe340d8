package reporter

import (
	"sync"
	"time"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

// Snapshot is the outcome of the most recent poll cycle.
type Snapshot struct {
	Record    *models.ContainerRecord
	UpdatedAt time.Time
	Cycles    int
}

// State holds the latest cycle outcome. The loop writes it; the status server
// reads it from another goroutine.
type State struct {
	mu        sync.RWMutex
	record    models.ContainerRecord
	available bool
	updatedAt time.Time
	cycles    int
}

// Set stores the outcome of one cycle.
func (s *State) Set(rec models.ContainerRecord, available bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = rec
	s.available = available
	s.updatedAt = at
	s.cycles++
}

// Snapshot returns a copy of the current state. Record is nil when the last
// cycle produced no data.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{UpdatedAt: s.updatedAt, Cycles: s.cycles}
	if s.available {
		rec := s.record
		snap.Record = &rec
	}
	return snap
}
