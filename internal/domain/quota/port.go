package quota

import "context"

// Store persists usage counters. Get returns a zero Usage (not an error) for unknown users.
type Store interface {
	Get(ctx context.Context, userID string) (Usage, error)
	// Reserve takes one free-tier slot in a single atomic step when Count < limit.
	// Paid users are admitted without counting. ok is false when no slot is left.
	Reserve(ctx context.Context, userID string, limit int) (u Usage, ok bool, err error)
	// Release gives back a slot taken by Reserve. Count never drops below zero.
	Release(ctx context.Context, userID string) (Usage, error)
	Upgrade(ctx context.Context, userID string) (Usage, error)
}
