package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bryanwahyu/design-alchemist/internal/application"
)

// RevocationList keeps revoked token ids until their expiry.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   application.Clock
}

func NewRevocationList(clock application.Clock) *RevocationList {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &RevocationList{revoked: make(map[string]time.Time), clock: clock}
}

func (l *RevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	l.revoked[tokenID] = until
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if l.clock.Now().After(until) {
		delete(l.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (l *RevocationList) prune() {
	now := l.clock.Now()
	for id, until := range l.revoked {
		if now.After(until) {
			delete(l.revoked, id)
		}
	}
}
