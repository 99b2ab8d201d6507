package httpserver

import (
	"io"
	"net/http"

	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

const maxWebhookBody = 64 << 10

// POST /v1/billing/checkout
func (r *Router) handleCheckout(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	if r.Billing == nil {
		return billing.ErrNotConfigured
	}
	sess, err := r.Billing.Checkout(req.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess)
	return nil
}

// POST /v1/billing/simulated/complete
// Body: {"session_id": "cs_test_..."}
func (r *Router) handleSimulatedComplete(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	if r.Billing == nil {
		return billing.ErrNotConfigured
	}
	var body struct {
		SessionID string `json:"session_id" validate:"required"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateStruct(body); err != nil {
		return err
	}
	st, err := r.Billing.Confirm(req.Context(), user.ID, body.SessionID)
	if err != nil {
		return err
	}
	middleware.IncrementUpgrades()
	writeJSON(w, http.StatusOK, st)
	return nil
}

// POST /v1/billing/webhook (Stripe-Signature header)
func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) error {
	if r.Billing == nil {
		return billing.ErrNotConfigured
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxWebhookBody))
	if err != nil {
		return badRequest{msg: "invalid webhook body", err: err}
	}
	if err := r.Billing.HandleWebhook(req.Context(), payload, req.Header.Get("Stripe-Signature")); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	return nil
}
