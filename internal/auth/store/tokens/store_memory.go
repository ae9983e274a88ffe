// Package tokens tracks issued session credentials by JWT ID so operators
// can see which credentials are live. Entries expire with the credential.
package tokens

import (
	"context"
	"sync"
	"time"

	"firtrace/pkg/domain"
)

type entry struct {
	address   domain.Address
	expiresAt time.Time
}

// InMemoryTokenStore tracks issued tokens in memory for tests/dev.
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	issued map[string]entry
}

// NewInMemory constructs an empty issued-token store.
func NewInMemory() *InMemoryTokenStore {
	return &InMemoryTokenStore{issued: make(map[string]entry)}
}

func (s *InMemoryTokenStore) Record(_ context.Context, jti string, addr domain.Address, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[jti] = entry{address: addr, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryTokenStore) IsIssued(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.issued[jti]
	if !ok {
		return false, nil
	}
	return time.Now().Before(e.expiresAt), nil
}

// DeleteExpired removes entries past their expiry as of now. The time is
// injected for testability.
func (s *InMemoryTokenStore) DeleteExpired(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for jti, e := range s.issued {
		if e.expiresAt.Before(now) {
			delete(s.issued, jti)
			deleted++
		}
	}
	return deleted
}
