package quota

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/design-alchemist/internal/domain/quota"
	"github.com/bryanwahyu/design-alchemist/internal/infra/memory"
)

func TestAdmitFreeTier(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewQuotaStore(nil), 0, nil)
	assert.Equal(t, domain.DefaultFreeTierLimit, svc.Limit)

	for i := 0; i < domain.DefaultFreeTierLimit; i++ {
		ticket, err := svc.Admit(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ticket.Counted)
		assert.Equal(t, domain.DefaultFreeTierLimit-i-1, ticket.Status.Remaining)
		_, err = svc.Record(ctx, ticket, true)
		require.NoError(t, err)
	}

	ticket, err := svc.Admit(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrLimitReached)
	assert.False(t, ticket.Counted)
	assert.Equal(t, 0, ticket.Status.Remaining)
	assert.Equal(t, 3, ticket.Status.Count)
}

func TestRecordReleasesFailedAnalyses(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewQuotaStore(nil), 2, nil)

	ticket, err := svc.Admit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.Status.Count)

	st, err := svc.Record(ctx, ticket, false)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, 2, st.Remaining)
}

func TestPaidUserNotCounted(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewQuotaStore(nil), 1, nil)

	ticket, err := svc.Admit(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Record(ctx, ticket, true)
	require.NoError(t, err)
	_, err = svc.Admit(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrLimitReached)

	_, err = svc.Upgrade(ctx, "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		ticket, err = svc.Admit(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ticket.Counted)
		assert.True(t, ticket.Status.IsPaid)
		st, err := svc.Record(ctx, ticket, i%2 == 0)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Count)
	}
}

func TestConcurrentAdmitsRespectLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuotaStore(nil)
	svc := NewService(store, 3, nil)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := svc.Admit(ctx, "u1")
			if err != nil {
				return
			}
			admitted.Add(1)
			time.Sleep(20 * time.Millisecond) // analysis in flight
			_, _ = svc.Record(ctx, ticket, true)
		}()
	}
	wg.Wait()

	u, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, admitted.Load())
	assert.Equal(t, 3, u.Count)
}

func TestConcurrentFailuresGiveSlotsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuotaStore(nil)
	svc := NewService(store, 3, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ticket, err := svc.Admit(ctx, "u1"); err == nil {
				_, _ = svc.Record(ctx, ticket, false)
			}
		}()
	}
	wg.Wait()

	st, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (domain.Usage, error) {
	return domain.Usage{}, errors.New("store down")
}
func (brokenStore) Reserve(context.Context, string, int) (domain.Usage, bool, error) {
	return domain.Usage{}, false, errors.New("store down")
}
func (brokenStore) Release(context.Context, string) (domain.Usage, error) {
	return domain.Usage{}, errors.New("store down")
}
func (brokenStore) Upgrade(context.Context, string) (domain.Usage, error) {
	return domain.Usage{}, errors.New("store down")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	svc := NewService(brokenStore{}, 3, nil)
	_, err := svc.Admit(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve usage")
	assert.NotErrorIs(t, err, domain.ErrLimitReached)

	_, err = svc.Record(context.Background(), Ticket{UserID: "u1", Counted: true}, false)
	assert.ErrorContains(t, err, "release usage")
}
