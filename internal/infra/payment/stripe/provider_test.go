package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
)

const whsec = "whsec_test"

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(Options{SecretKey: "sk_test_x", WebhookSecret: whsec, PriceID: "price_1"})
	require.NoError(t, err)
	return p
}

func sign(payload string) *webhook.SignedPayload {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    whsec,
		Timestamp: time.Now(),
	})
}

func TestNewProviderRequiresKeys(t *testing.T) {
	_, err := NewProvider(Options{})
	assert.ErrorIs(t, err, billing.ErrNotConfigured)
}

func TestParseWebhookCompleted(t *testing.T) {
	p := newProvider(t)
	sp := sign(`{"id":"evt_1","object":"event","type":"checkout.session.completed",
"data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"u1","payment_status":"paid"}}}`)

	ev, err := p.ParseWebhook(sp.Payload, sp.Header)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, "u1", ev.UserID)
	assert.True(t, ev.Paid)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	p := newProvider(t)
	sp := sign(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	ev, err := p.ParseWebhook(sp.Payload, sp.Header)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParseWebhookBadSignature(t *testing.T) {
	p := newProvider(t)
	_, err := p.ParseWebhook([]byte(`{"type":"checkout.session.completed"}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, billing.ErrInvalidWebhook)
}
