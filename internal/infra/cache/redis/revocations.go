package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList stores revoked token ids with a TTL matching the token expiry.
type RevocationList struct {
	client *redis.Client
	prefix string
}

func NewRevocationList(client *redis.Client, prefix string) *RevocationList {
	if prefix == "" {
		prefix = "alchemist:"
	}
	return &RevocationList{client: client, prefix: prefix + "revoked:"}
}

func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	return l.client.Set(ctx, l.prefix+tokenID, "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
