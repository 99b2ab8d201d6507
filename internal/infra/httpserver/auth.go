package httpserver

import (
	"net/http"

	"github.com/bryanwahyu/design-alchemist/internal/domain/identity"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

type credentials struct {
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=128"`
}

func readCredentials(req *http.Request) (credentials, error) {
	var c credentials
	if err := decodeJSON(req, &c); err != nil {
		return c, err
	}
	c.Email = middleware.SanitizeString(c.Email)
	if c.Email == "" || c.Password == "" {
		return c, identity.ErrMissingCredentials
	}
	return c, middleware.ValidateStruct(c)
}

// POST /v1/auth/signup
func (r *Router) handleSignUp(w http.ResponseWriter, req *http.Request) error {
	c, err := readCredentials(req)
	if err != nil {
		return err
	}
	sess, err := r.Identity.SignUp(req.Context(), c.Email, c.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, sess)
	return nil
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	c, err := readCredentials(req)
	if err != nil {
		return err
	}
	sess, err := r.Identity.SignIn(req.Context(), c.Email, c.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess)
	return nil
}

// POST /v1/auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if err := r.Identity.SignOut(req.Context(), middleware.TokenFromContext(req.Context())); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	st, err := r.Quota.Status(req.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "quota": st})
	return nil
}
