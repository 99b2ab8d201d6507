package quota

import (
	"errors"
	"time"
)

// DefaultFreeTierLimit is the number of free analyses a non-paid user gets.
const DefaultFreeTierLimit = 3

// ErrLimitReached is returned by admission when a free user has used every analysis.
var ErrLimitReached = errors.New("free tier limit reached, upgrade to premium for unlimited analyses")

// Usage is the metering state of one user.
type Usage struct {
	UserID    string    `json:"user_id"`
	Count     int       `json:"count"`
	IsPaid    bool      `json:"is_paid"`
	UpdatedAt time.Time `json:"updated_at"`
}
