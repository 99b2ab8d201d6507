package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/bryanwahyu/design-alchemist/internal/domain/account"
)

// AccountRepository is an in-memory account.Repository.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*account.Account
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*account.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(a.Email)
	if _, exists := r.byEmail[email]; exists {
		return account.ErrDuplicateEmail
	}
	cp := *a
	cp.Email = email
	r.byID[cp.ID] = &cp
	r.byEmail[email] = cp.ID
	return nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
