package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
)

const (
	fieldCount     = "count"
	fieldPaid      = "paid"
	fieldUpdatedAt = "updated_at"
)

// reserveScript returns 1 when the caller may run an analysis.
// KEYS[1]=hash ARGV[1]=limit ARGV[2]=updated_at
var reserveScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'paid') == '1' then
  return 1
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if count >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return 1
`)

// KEYS[1]=hash ARGV[1]=updated_at
var releaseScript = redis.NewScript(`
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if count > 0 then
  redis.call('HINCRBY', KEYS[1], 'count', -1)
  redis.call('HSET', KEYS[1], 'updated_at', ARGV[1])
end
return count
`)

// QuotaStore keeps one hash per user: count, paid, updated_at.
type QuotaStore struct {
	client *redis.Client
	prefix string
}

func NewQuotaStore(client *redis.Client, prefix string) *QuotaStore {
	if prefix == "" {
		prefix = "alchemist:"
	}
	return &QuotaStore{client: client, prefix: prefix + "quota:"}
}

func (s *QuotaStore) key(userID string) string {
	return s.prefix + userID
}

func (s *QuotaStore) Get(ctx context.Context, userID string) (quota.Usage, error) {
	vals, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return quota.Usage{}, err
	}
	return decodeUsage(userID, vals), nil
}

func (s *QuotaStore) Reserve(ctx context.Context, userID string, limit int) (quota.Usage, bool, error) {
	ok, err := reserveScript.Run(ctx, s.client, []string{s.key(userID)}, limit, now()).Int()
	if err != nil {
		return quota.Usage{}, false, err
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return quota.Usage{}, false, err
	}
	return u, ok == 1, nil
}

func (s *QuotaStore) Release(ctx context.Context, userID string) (quota.Usage, error) {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(userID)}, now()).Err(); err != nil {
		return quota.Usage{}, err
	}
	return s.Get(ctx, userID)
}

func (s *QuotaStore) Upgrade(ctx context.Context, userID string) (quota.Usage, error) {
	key := s.key(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldPaid, "1", fieldUpdatedAt, now())
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return quota.Usage{}, err
	}
	return decodeUsage(userID, all.Val()), nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func decodeUsage(userID string, vals map[string]string) quota.Usage {
	u := quota.Usage{UserID: userID}
	if v, ok := vals[fieldCount]; ok {
		u.Count, _ = strconv.Atoi(v)
	}
	u.IsPaid = vals[fieldPaid] == "1"
	if v, ok := vals[fieldUpdatedAt]; ok {
		u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return u
}
