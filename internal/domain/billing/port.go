package billing

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyPaid     = errors.New("user already has premium")
	ErrUnknownSession  = errors.New("checkout session not found")
	ErrNotConfigured   = errors.New("payment provider is not configured")
	ErrInvalidWebhook  = errors.New("invalid webhook payload")
	ErrSessionMismatch = errors.New("checkout session belongs to another user")
)

// CheckoutSession is a pending premium purchase.
type CheckoutSession struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"-"`
	URL       string    `json:"redirect_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a provider notification about a session.
type Event struct {
	SessionID string
	UserID    string
	Paid      bool
}

// Provider creates checkout sessions and resolves where the browser should go.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, userID string) (CheckoutSession, error)
	RedirectToCheckout(ctx context.Context, sessionID string) (string, error)
}

// WebhookParser is implemented by providers that push signed notifications.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Confirmer is implemented by providers where the client confirms payment directly.
type Confirmer interface {
	Complete(ctx context.Context, sessionID string) (*Event, error)
}
