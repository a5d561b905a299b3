package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressmark/blog-platform/internal/api/metrics"
)

// ReuseDetector remembers hashes of retired refresh tokens so a replay of a
// rotated-away token can be told apart from random garbage.
// Key format: retired:<token_hash>
type ReuseDetector struct {
	client *redis.Client
}

// NewReuseDetector creates a ReuseDetector wrapping the given Redis client.
func NewReuseDetector(client *redis.Client) *ReuseDetector {
	return &ReuseDetector{client: client}
}

// MarkRetired records hash as superseded. The entry outlives the refresh
// window via ttl, after which a replay would fail on expiry anyway.
func (d *ReuseDetector) MarkRetired(ctx context.Context, hash string, ttl time.Duration) error {
	return d.client.Set(ctx, d.key(hash), "1", ttl).Err()
}

// SeenRetired reports whether hash belongs to a token that was rotated away.
func (d *ReuseDetector) SeenRetired(ctx context.Context, hash string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(hash)).Result()
	if err != nil {
		return false, fmt.Errorf("reuse check: %w", err)
	}
	if n > 0 {
		metrics.TokenReuseDetectedTotal.Inc()
		return true, nil
	}
	return false, nil
}

func (d *ReuseDetector) key(hash string) string {
	return "retired:" + hash
}
