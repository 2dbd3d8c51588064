package dedup

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// RunJanitor purges expired records every interval until ctx is done.
func RunJanitor(ctx context.Context, purger Purger, interval time.Duration, logger glog.Logger) {
	if purger == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	logger = glog.Ensure(logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("dedup purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("dedup records purged", "count", n)
			}
		}
	}
}
