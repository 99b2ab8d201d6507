package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
)

// LedgerRepository is an in-memory ledger.Repository.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries []*ledger.Entry
}

func NewLedgerRepository() *LedgerRepository { return &LedgerRepository{} }

func (r *LedgerRepository) Save(_ context.Context, e *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	for i, existing := range r.entries {
		if existing.ID == e.ID {
			r.entries[i] = &cp
			return nil
		}
	}
	r.entries = append(r.entries, &cp)
	return nil
}

// Paginate returns a page of entries ordered by created_at desc
func (r *LedgerRepository) Paginate(_ context.Context, userID string, page, pageSize int) ([]*ledger.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	r.mu.RLock()
	var mine []*ledger.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			cp := *e
			mine = append(mine, &cp)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(mine, func(i, j int) bool {
		if mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].ID > mine[j].ID
		}
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	offset := (page - 1) * pageSize
	if offset >= len(mine) {
		return []*ledger.Entry{}, nil
	}
	end := offset + pageSize
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], nil
}
