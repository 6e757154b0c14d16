package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/session"
)

// logoutCmd clears the persisted session without opening the client.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, cleanup, err := logging.New(logging.Options{Level: logLevel, Format: "json", Path: logPath()})
		if err != nil {
			return err
		}
		defer cleanup()

		vault, closeVault, err := openVault(cfg.Session, openKeyring(logger), logger)
		if err != nil {
			return err
		}
		defer closeVault()

		mgr := session.NewManager(vault, logger)
		st := mgr.Restore(cmd.Context())
		mgr.Logout(cmd.Context())
		logger.Info("session cleared", zap.Int64("user_id", st.User.ID))

		if st.LoggedIn() {
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s.\n", st.User.Username)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved session.")
		}
		return nil
	},
}
