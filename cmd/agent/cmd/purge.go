package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/logging"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired dedup records from the configured store",
	Long:  "Delete expired dedup records from the Postgres or SQLite store. The in-memory backend has nothing to purge.",
	RunE:  runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel).Named("purge")

	if cfg.DedupBackend == config.BackendMemory {
		fmt.Fprintln(cmd.OutOrStdout(), "memory backend: nothing to purge")
		return nil
	}

	ctx := cmd.Context()
	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	purger, ok := cache.(dedup.Purger)
	if !ok {
		return nil
	}
	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		logger.Error("purge failed", "error", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired records\n", n)
	return nil
}
