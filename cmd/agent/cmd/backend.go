package cmd

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
)

// openCache builds the configured dedup backend. The returned func releases
// any underlying connection.
func openCache(ctx context.Context, cfg config.Config, logger glog.Logger) (dedup.Cache, func(), error) {
	switch cfg.DedupBackend {
	case config.BackendPostgres:
		pg, err := dedup.NewPostgresCache(ctx, cfg.DBURL, cfg.DedupTTL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		logger.Info("dedup backend ready", "backend", cfg.DedupBackend, "ttl", cfg.DedupTTL.String())
		return pg, pg.Close, nil

	case config.BackendSQLite:
		lite, err := dedup.NewSQLiteCache(ctx, cfg.SQLitePath, cfg.DedupTTL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("dedup backend ready", "backend", cfg.DedupBackend, "path", cfg.SQLitePath, "ttl", cfg.DedupTTL.String())
		return lite, func() { _ = lite.Close() }, nil

	default:
		mem := dedup.NewMemoryCacheWithLimits(cfg.DedupTTL, cfg.DedupMaxEntries)
		logger.Info("dedup backend ready", "backend", config.BackendMemory, "ttl", cfg.DedupTTL.String(), "max_entries", cfg.DedupMaxEntries)
		return mem, func() {}, nil
	}
}
