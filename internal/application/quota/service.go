package quota

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/design-alchemist/internal/domain/quota"
)

// Service meters analyses. It is called around the analysis, never from inside it.
type Service struct {
	Store  domain.Store
	Limit  int
	Logger *zap.Logger
}

func NewService(store domain.Store, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = domain.DefaultFreeTierLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Limit: limit, Logger: logger}
}

// Status is the quota view shown to a user.
type Status struct {
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	IsPaid    bool `json:"is_paid"`
}

// Status returns the current metering state.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	u, err := s.Store.Get(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("load usage: %w", err)
	}
	return s.status(u), nil
}

// Ticket is what Admit hands out. Counted is set when a free-tier slot was
// reserved and must be given back if the analysis fails.
type Ticket struct {
	UserID  string
	Counted bool
	Status  Status
}

// Admit reserves one analysis for userID before it runs. Paid users are always
// admitted and never counted. Concurrent calls cannot overshoot the limit.
func (s *Service) Admit(ctx context.Context, userID string) (Ticket, error) {
	u, ok, err := s.Store.Reserve(ctx, userID, s.Limit)
	if err != nil {
		return Ticket{}, fmt.Errorf("reserve usage: %w", err)
	}
	st := s.status(u)
	if !ok {
		return Ticket{UserID: userID, Status: st}, domain.ErrLimitReached
	}
	return Ticket{UserID: userID, Counted: !u.IsPaid, Status: st}, nil
}

// Record settles a ticket. Only successful analyses of free users stay counted.
func (s *Service) Record(ctx context.Context, t Ticket, succeeded bool) (Status, error) {
	if succeeded || !t.Counted {
		s.Logger.Debug("usage recorded", zap.String("user_id", t.UserID), zap.Bool("counted", t.Counted && succeeded))
		return s.Status(ctx, t.UserID)
	}
	u, err := s.Store.Release(ctx, t.UserID)
	if err != nil {
		return Status{}, fmt.Errorf("release usage: %w", err)
	}
	return s.status(u), nil
}

// Upgrade marks userID as a paid user.
func (s *Service) Upgrade(ctx context.Context, userID string) (Status, error) {
	u, err := s.Store.Upgrade(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("upgrade usage: %w", err)
	}
	s.Logger.Info("user upgraded to premium", zap.String("user_id", userID))
	return s.status(u), nil
}

func (s *Service) status(u domain.Usage) Status {
	remaining := s.Limit - u.Count
	if remaining < 0 {
		remaining = 0
	}
	return Status{Count: u.Count, Limit: s.Limit, Remaining: remaining, IsPaid: u.IsPaid}
}
