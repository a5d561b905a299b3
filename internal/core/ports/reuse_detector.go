package ports

import (
	"context"
	"time"
)

// ReuseDetector remembers hashes of refresh tokens that were rotated away.
// A failed rotation can then tell a replayed (stolen or stale) token apart
// from random garbage, which feeds the reuse metric and log line.
type ReuseDetector interface {
	MarkRetired(ctx context.Context, hash string, ttl time.Duration) error
	SeenRetired(ctx context.Context, hash string) (bool, error)
}
