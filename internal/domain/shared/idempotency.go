package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so event handlers can
// suppress duplicate deliveries
type IdempotencyStore interface {
	// MarkProcessed records an event ID with a TTL. It returns true when
	// the ID was newly recorded, false when it was already present.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event ID has been recorded
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases the store's resources
	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	// TTL bounds how long a processed event ID is remembered. After it
	// expires the same ID is treated as new again.
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig keeps processed IDs for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
