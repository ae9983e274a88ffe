// Package attempts persists authentication attempts. The log is append-only;
// nothing in the system updates or deletes an attempt once written.
package attempts

import (
	"context"
	"sync"

	"firtrace/internal/auth"
)

// InMemoryAttemptStore keeps attempts in memory for tests/dev.
type InMemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts []auth.Attempt
}

func NewInMemory() *InMemoryAttemptStore {
	return &InMemoryAttemptStore{}
}

func (s *InMemoryAttemptStore) Append(_ context.Context, attempt auth.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// ByAddress returns attempts recorded for an address, oldest first.
func (s *InMemoryAttemptStore) ByAddress(_ context.Context, address string) ([]auth.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Attempt, 0)
	for _, a := range s.attempts {
		if a.Address == address {
			out = append(out, a)
		}
	}
	return out, nil
}
