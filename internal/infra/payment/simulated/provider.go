// Package simulated is a payment provider for local runs: checkout always
// succeeds once the client confirms the session.
package simulated

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
)

const (
	// DefaultSessionTTL matches how long a hosted checkout page stays open.
	DefaultSessionTTL = 24 * time.Hour
	// completed sessions linger so a retried confirmation still resolves
	completedRetention = 10 * time.Minute
)

type session struct {
	userID    string
	paid      bool
	createdAt time.Time
	paidAt    time.Time
}

type Provider struct {
	SuccessURL string
	TTL        time.Duration

	clock    application.Clock
	mu       sync.Mutex
	sessions map[string]*session
}

func NewProvider(successURL string, clock application.Clock) *Provider {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Provider{
		SuccessURL: successURL,
		TTL:        DefaultSessionTTL,
		clock:      clock,
		sessions:   map[string]*session{},
	}
}

func (p *Provider) CreateCheckoutSession(_ context.Context, userID string) (billing.CheckoutSession, error) {
	id := "cs_test_" + uuid.NewString()
	now := p.clock.Now()
	p.mu.Lock()
	p.prune(now)
	p.sessions[id] = &session{userID: userID, createdAt: now}
	p.mu.Unlock()
	return billing.CheckoutSession{ID: id, UserID: userID, CreatedAt: now}, nil
}

func (p *Provider) RedirectToCheckout(_ context.Context, sessionID string) (string, error) {
	p.mu.Lock()
	p.prune(p.clock.Now())
	_, ok := p.sessions[sessionID]
	p.mu.Unlock()
	if !ok {
		return "", billing.ErrUnknownSession
	}
	u, err := url.Parse(p.SuccessURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Complete marks the session paid. Completing again within the retention window is allowed.
func (p *Provider) Complete(_ context.Context, sessionID string) (*billing.Event, error) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune(now)
	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, billing.ErrUnknownSession
	}
	if !s.paid {
		s.paid = true
		s.paidAt = now
	}
	return &billing.Event{SessionID: sessionID, UserID: s.userID, Paid: true}, nil
}

// prune drops expired sessions and completed ones past retention. Caller holds mu.
func (p *Provider) prune(now time.Time) {
	for id, s := range p.sessions {
		switch {
		case s.paid && now.Sub(s.paidAt) >= completedRetention:
			delete(p.sessions, id)
		case now.Sub(s.createdAt) >= p.TTL:
			delete(p.sessions, id)
		}
	}
}
