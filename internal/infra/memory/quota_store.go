package memory

import (
	"context"
	"sync"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
)

// QuotaStore keeps usage counters in process memory.
type QuotaStore struct {
	mu    sync.Mutex
	usage map[string]quota.Usage
	clock application.Clock
}

func NewQuotaStore(clock application.Clock) *QuotaStore {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &QuotaStore{usage: make(map[string]quota.Usage), clock: clock}
}

func (s *QuotaStore) Get(_ context.Context, userID string) (quota.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID), nil
}

func (s *QuotaStore) Reserve(_ context.Context, userID string, limit int) (quota.Usage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.load(userID)
	if u.IsPaid {
		return u, true, nil
	}
	if u.Count >= limit {
		return u, false, nil
	}
	u.Count++
	u.UpdatedAt = s.clock.Now()
	s.usage[userID] = u
	return u, true, nil
}

func (s *QuotaStore) Release(_ context.Context, userID string) (quota.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.load(userID)
	if u.Count == 0 {
		return u, nil
	}
	u.Count--
	u.UpdatedAt = s.clock.Now()
	s.usage[userID] = u
	return u, nil
}

func (s *QuotaStore) Upgrade(_ context.Context, userID string) (quota.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.load(userID)
	u.IsPaid = true
	u.UpdatedAt = s.clock.Now()
	s.usage[userID] = u
	return u, nil
}

func (s *QuotaStore) load(userID string) quota.Usage {
	u, ok := s.usage[userID]
	if !ok {
		return quota.Usage{UserID: userID}
	}
	return u
}
