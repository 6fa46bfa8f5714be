package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"prism-todos/config"
	"prism-todos/mockapi"
)

var serveFlags struct {
	addr          string
	backend       string
	seed          int
	failMutations bool
}

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run a local todo service for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMock()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		applyServeFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config: %v", err)
		}
		if cfg.Debug {
			log.SetLevel(log.DebugLevel)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.StandardLogger()
		backend, cleanup, err := mockapi.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := mockapi.NewServer(backend, mockapi.Options{FailMutations: cfg.FailMutations}, logger)
		errCh := make(chan error, 1)
		go func() {
			logger.WithField("addr", cfg.ListenAddr).Info("todos.mock.listening")
			errCh <- srv.Start(cfg.ListenAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Echo.Shutdown(shutdownCtx)
	},
}

func init() {
	f := serveMockCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (overrides MOCK_LISTEN_ADDR)")
	f.StringVar(&serveFlags.backend, "backend", "", "memory, redis or tables (overrides MOCK_BACKEND)")
	f.IntVar(&serveFlags.seed, "seed", 0, "number of placeholder todos to seed (overrides MOCK_SEED_COUNT)")
	f.BoolVar(&serveFlags.failMutations, "fail-mutations", false, "answer 503 to every PUT and DELETE")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Mock) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.ListenAddr = serveFlags.addr
	}
	if f.Changed("backend") {
		cfg.Backend = serveFlags.backend
	}
	if f.Changed("seed") {
		cfg.SeedCount = serveFlags.seed
	}
	if f.Changed("fail-mutations") {
		cfg.FailMutations = serveFlags.failMutations
	}
}
