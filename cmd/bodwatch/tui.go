package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/app"
	"github.com/nhle/bod-watchlist/internal/credential"
	"github.com/nhle/bod-watchlist/internal/intake"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/session"
	"github.com/nhle/bod-watchlist/internal/store"
	appsync "github.com/nhle/bod-watchlist/internal/sync"
)

// notificationsDB, when set, points the poller at a backend database.
var notificationsDB string

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:  logLevel,
		Format: "json",
		Path:   logPath(),
	})
	if err != nil {
		return err
	}
	defer cleanup()

	ring := openKeyring(logger)
	vault, closeVault, err := openVault(cfg.Session, ring, logger)
	if err != nil {
		return err
	}
	defer closeVault()

	mgr := session.NewManager(vault, logger)
	client := api.NewClient(cfg.API.BaseURL, mgr.View(),
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second))

	var notifSrc appsync.NotificationSource = appsync.APISource{Client: client}
	if notificationsDB != "" {
		st, err := store.NewSQLiteStore(notificationsDB)
		if err != nil {
			return fmt.Errorf("opening notifications database: %w", err)
		}
		defer st.Close()
		notifSrc = appsync.StoreSource{Store: st}
	}

	assistant := newAssistant(cfg.AI, ring, logger)
	var (
		transcriber intake.Transcriber
		summarizer  app.Summarizer
	)
	if assistant != nil {
		transcriber = assistant
		summarizer = assistant
	}

	flow := intake.NewFlow(intake.Deps{
		Recorder: intake.ExecRecorder{
			Command:  cfg.Recorder.Command,
			Args:     cfg.Recorder.Args,
			MIMEType: cfg.Recorder.MIMEType,
		},
		Transcriber: transcriber,
		Extractor:   client,
		Distributor: client,
		Session:     mgr.View(),
		Logger:      logger,
	})

	applyTheme(cfg.Display.Theme)

	m := app.New(app.Deps{
		Backend:       client,
		Session:       mgr,
		Notifications: notifSrc,
		Flow:          flow,
		Summarizer:    summarizer,
		PollOptions:   app.PollOptions(cfg.Poller, cfg.Display, logger),
		Logger:        logger,
	})

	logger.Info("starting terminal client",
		zap.String("api", cfg.API.BaseURL),
		zap.String("version", version))

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal client: %w", err)
	}
	return nil
}

// openVault returns where the session is persisted. The keyring is
// preferred; the local database is used when configured or when no keyring
// can be opened.
func openVault(cfg model.SessionConfig, ring *credential.Keyring, logger *zap.Logger) (session.Vault, func(), error) {
	if cfg.Backend != "store" && ring != nil {
		return session.KeyringVault{Ring: ring}, func() {}, nil
	}
	if cfg.Backend != "store" {
		logger.Warn("falling back to local session store", zap.String("path", cfg.DBPath))
	}
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	return session.StoreVault{KV: st}, func() { _ = st.Close() }, nil
}

// applyTheme forces light or dark colours; anything else lets lipgloss
// detect the terminal background.
func applyTheme(name string) {
	switch name {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
