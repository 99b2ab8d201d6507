package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
)

const eventCheckoutCompleted = "checkout.session.completed"

type Options struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// Provider sells the premium upgrade through Stripe Checkout in payment mode.
type Provider struct {
	api  *client.API
	opts Options
}

func NewProvider(opts Options) (*Provider, error) {
	if opts.SecretKey == "" || opts.PriceID == "" {
		return nil, fmt.Errorf("stripe: secret key and price id are required: %w", billing.ErrNotConfigured)
	}
	api := &client.API{}
	api.Init(opts.SecretKey, nil)
	return &Provider{api: api, opts: opts}, nil
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, userID string) (billing.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.opts.PriceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(p.opts.SuccessURL),
		CancelURL:         stripe.String(p.opts.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return billing.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return billing.CheckoutSession{ID: s.ID, UserID: userID, URL: s.URL}, nil
}

func (p *Provider) RedirectToCheckout(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("stripe get session %s: %w", sessionID, err)
	}
	if s.URL == "" {
		return "", billing.ErrUnknownSession
	}
	return s.URL, nil
}

// ParseWebhook verifies the Stripe-Signature header. Events other than a
// completed checkout yield a nil event.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if p.opts.WebhookSecret == "" {
		return nil, billing.ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrInvalidWebhook, err)
	}
	if string(ev.Type) != eventCheckoutCompleted {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrInvalidWebhook, err)
	}
	userID := s.ClientReferenceID
	if userID == "" {
		userID = s.Metadata["user_id"]
	}
	return &billing.Event{
		SessionID: s.ID,
		UserID:    userID,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}
