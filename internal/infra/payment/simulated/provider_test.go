package simulated

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
)

func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	p := NewProvider("http://localhost:3000/billing/success", nil)

	sess, err := p.CreateCheckoutSession(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, "cs_test_"))
	assert.Equal(t, "u1", sess.UserID)

	redirect, err := p.RedirectToCheckout(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/billing/success?session_id="+sess.ID, redirect)

	ev, err := p.Complete(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, &billing.Event{SessionID: sess.ID, UserID: "u1", Paid: true}, ev)
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	p := NewProvider("http://localhost/ok", nil)

	_, err := p.RedirectToCheckout(ctx, "cs_test_nope")
	assert.ErrorIs(t, err, billing.ErrUnknownSession)
	_, err = p.Complete(ctx, "cs_test_nope")
	assert.ErrorIs(t, err, billing.ErrUnknownSession)
}

func TestSessionsAreEvicted(t *testing.T) {
	ctx := context.Background()
	clock := &application.FixedClock{T: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProvider("http://localhost/ok", clock)

	done, err := p.CreateCheckoutSession(ctx, "u1")
	require.NoError(t, err)
	stale, err := p.CreateCheckoutSession(ctx, "u2")
	require.NoError(t, err)
	_, err = p.Complete(ctx, done.ID)
	require.NoError(t, err)

	// a retried confirmation inside the retention window still resolves
	clock.T = clock.T.Add(time.Minute)
	_, err = p.Complete(ctx, done.ID)
	require.NoError(t, err)

	clock.T = clock.T.Add(completedRetention)
	fresh, err := p.CreateCheckoutSession(ctx, "u3")
	require.NoError(t, err)
	assert.Len(t, p.sessions, 2)
	_, err = p.Complete(ctx, done.ID)
	assert.ErrorIs(t, err, billing.ErrUnknownSession)

	clock.T = clock.T.Add(DefaultSessionTTL)
	_, err = p.RedirectToCheckout(ctx, stale.ID)
	assert.ErrorIs(t, err, billing.ErrUnknownSession)
	_, err = p.Complete(ctx, fresh.ID)
	assert.ErrorIs(t, err, billing.ErrUnknownSession)
	assert.Empty(t, p.sessions)
}
