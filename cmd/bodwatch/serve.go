package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/alert"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/server"
	"github.com/nhle/bod-watchlist/internal/store"
)

var serveAddr string

// serveCmd runs the reference backend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mandate backend",
	Long: `Run the REST backend the terminal client talks to.

Examples:
  # Serve on the configured address
  bodwatch serve

  # Override the listen address
  bodwatch serve --addr :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(logging.Options{Level: logLevel, Format: "json"})
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is not set (config or BODWATCH_SERVER_JWT_SECRET)")
	}

	st, err := store.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("opening backend database: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeded, err := server.SeedUsers(ctx, st, cfg.Server.Seed, logger)
	if err != nil {
		return err
	}
	if seeded > 0 {
		logger.Info("seeded roster", zap.Int("users", seeded))
	}

	var extractor server.Extractor
	if assistant := newAssistant(cfg.AI, openKeyring(logger), logger); assistant != nil {
		extractor = assistant
	}

	srv, err := server.New(server.Config{
		JWTSecret: cfg.Server.JWTSecret,
		TokenTTL:  time.Duration(cfg.Server.TokenTTLMin) * time.Minute,
	}, server.Deps{
		Store:  st,
		AI:     extractor,
		Alerts: alert.NewNotifier(cfg.Server.Mailbox, logger),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	return srv.ListenAndServe(ctx, addr)
}
