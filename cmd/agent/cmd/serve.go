package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/bm-echo-agent/internal/agent"
	"github.com/PratikDhanave/bm-echo-agent/internal/bmclient"
	"github.com/PratikDhanave/bm-echo-agent/internal/compose"
	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/credentials"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/httpserver"
	"github.com/PratikDhanave/bm-echo-agent/internal/logging"
	"github.com/PratikDhanave/bm-echo-agent/internal/sender"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the callback server",
	RunE:  runServe,
}

// runServe boots the agent: config, logger, persona, dedup store, API
// client, HTTP server.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := logging.New(os.Stderr, cfg.LogLevel)
	loggers := logging.Provider{Root: root}
	logger := loggers.GetLogger("serve")

	persona := config.DefaultPersona()
	if cfg.PersonaFile != "" {
		if persona, err = config.LoadPersona(cfg.PersonaFile); err != nil {
			logger.Error("persona load failed", "path", cfg.PersonaFile, "error", err)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := openCache(ctx, cfg, loggers.GetLogger("dedup"))
	if err != nil {
		logger.Error("dedup backend unavailable", "backend", cfg.DedupBackend, "error", err)
		return err
	}
	defer closeCache()

	if purger, ok := cache.(dedup.Purger); ok {
		go dedup.RunJanitor(ctx, purger, cfg.DedupPurgeInterval, loggers.GetLogger("janitor"))
	}

	// A failed init is logged and retried lazily by later sends; callbacks are
	// still acknowledged meanwhile.
	provider := bmclient.NewProvider(cfg.APIBaseURL, credentials.Factory(ctx, cfg.CredentialsFile), loggers.GetLogger("bmclient"))
	provider.RetryInterval = cfg.ClientRetryInterval
	_ = provider.Init(ctx)

	pipeline := sender.NewPipeline(provider, loggers.GetLogger("sender"), cfg.SendTimeout)
	a := agent.New(cache, compose.New(persona), pipeline, loggers.GetLogger("agent"))

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Agent:  a,
		Cache:  cache,
		Client: provider,
		Logger: loggers.GetLogger("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", srv.Addr, "client_ready", provider.Ready())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server stopped", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SendTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
