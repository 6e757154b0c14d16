// Package main implements bodwatch, the terminal client for the board
// mandate tracker, and its reference backend.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/ai"
	"github.com/nhle/bod-watchlist/internal/credential"
	"github.com/nhle/bod-watchlist/internal/model"
)

var (
	// configPath is the YAML config file read by every command.
	configPath string
	// logLevel overrides the default info level.
	logLevel string
	version  = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bodwatch",
	Short: "Board of Directors mandate tracker",
	Long: `bodwatch tracks mandates issued by the Board of Directors.

Run without arguments to open the terminal client. Use "bodwatch serve" to
run the reference backend the client talks to.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&notificationsDB, "notifications-db", "",
		"read notifications from this backend database instead of the API")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(logoutCmd)
}

func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// logPath is where the terminal client writes its log.
func logPath() string {
	return filepath.Join(model.ConfigDir(), "bodwatch.log")
}

// openKeyring returns the OS keyring, or nil when none can be opened.
func openKeyring(logger *zap.Logger) *credential.Keyring {
	ring, err := credential.Open("")
	if err != nil {
		logger.Warn("keyring unavailable", zap.Error(err))
		return nil
	}
	return ring
}

// newAssistant builds the AI client, or returns nil when no API key is
// configured. The keyring entry wins over the environment.
func newAssistant(cfg model.AIConfig, ring *credential.Keyring, logger *zap.Logger) *ai.Assistant {
	var key string
	if ring != nil {
		if v, err := ring.Get(credential.KeyAIAPIKey); err == nil {
			key = v
		}
	}
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		logger.Info("no AI API key configured, AI features disabled")
		return nil
	}
	return ai.New(ai.Config{
		APIKey:             key,
		BaseURL:            cfg.BaseURL,
		Model:              cfg.Model,
		TranscriptionModel: cfg.TranscriptionModel,
	}, logger)
}
