// Package dedup remembers callback request ids for a bounded window so that
// redelivered events are processed at most once.
//
// Three backings share one contract: an in-process map for single-instance
// deployments, and Postgres or SQLite tables when several processes (or a
// restart) must agree on what has been seen.
package dedup

import (
	"context"
	"strings"
	"time"
)

// DefaultTTL covers the platform's redelivery window with margin.
const DefaultTTL = 10 * time.Minute

// Cache is a time-bounded set of request ids.
//
// Claim is the atomic check-and-set used on the hot path: for concurrent
// calls with the same id inside the retention window, exactly one returns
// true. An empty id always claims and is never recorded.
type Cache interface {
	Seen(ctx context.Context, requestID string) (bool, error)
	Record(ctx context.Context, requestID string) error
	Claim(ctx context.Context, requestID string) (bool, error)
}

// Purger is implemented by caches that can drop expired records on demand.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Pinger is implemented by caches backed by an external store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func normalizeKey(requestID string) string {
	return strings.TrimSpace(requestID)
}
