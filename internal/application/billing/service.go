package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appquota "github.com/bryanwahyu/design-alchemist/internal/application/quota"
	domain "github.com/bryanwahyu/design-alchemist/internal/domain/billing"
)

// Service links the payment provider to quota upgrades.
type Service struct {
	Provider domain.Provider
	Quota    *appquota.Service
	Logger   *zap.Logger
}

func NewService(provider domain.Provider, quota *appquota.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Provider: provider, Quota: quota, Logger: logger}
}

// Checkout creates a session for a free user and resolves its redirect URL.
func (s *Service) Checkout(ctx context.Context, userID string) (domain.CheckoutSession, error) {
	if s.Provider == nil {
		return domain.CheckoutSession{}, domain.ErrNotConfigured
	}
	st, err := s.Quota.Status(ctx, userID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if st.IsPaid {
		return domain.CheckoutSession{}, domain.ErrAlreadyPaid
	}

	sess, err := s.Provider.CreateCheckoutSession(ctx, userID)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	if sess.ID == "" {
		return domain.CheckoutSession{}, fmt.Errorf("create checkout session: %w", domain.ErrUnknownSession)
	}
	url, err := s.Provider.RedirectToCheckout(ctx, sess.ID)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("redirect to checkout: %w", err)
	}
	sess.URL = url
	s.Logger.Info("checkout session created", zap.String("user_id", userID), zap.String("session_id", sess.ID))
	return sess, nil
}

// HandleWebhook verifies a provider notification and upgrades the paying user.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	parser, ok := s.Provider.(domain.WebhookParser)
	if !ok {
		return domain.ErrNotConfigured
	}
	ev, err := parser.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if ev == nil {
		// event type we do not act on
		return nil
	}
	return s.apply(ctx, ev)
}

// Confirm completes a session for providers where the client reports payment.
func (s *Service) Confirm(ctx context.Context, userID, sessionID string) (appquota.Status, error) {
	confirmer, ok := s.Provider.(domain.Confirmer)
	if !ok {
		return appquota.Status{}, domain.ErrNotConfigured
	}
	ev, err := confirmer.Complete(ctx, sessionID)
	if err != nil {
		return appquota.Status{}, err
	}
	if ev.UserID != userID {
		return appquota.Status{}, domain.ErrSessionMismatch
	}
	if err := s.apply(ctx, ev); err != nil {
		return appquota.Status{}, err
	}
	return s.Quota.Status(ctx, userID)
}

func (s *Service) apply(ctx context.Context, ev *domain.Event) error {
	if !ev.Paid || ev.UserID == "" {
		s.Logger.Info("ignoring unpaid checkout event", zap.String("session_id", ev.SessionID))
		return nil
	}
	_, err := s.Quota.Upgrade(ctx, ev.UserID)
	return err
}
