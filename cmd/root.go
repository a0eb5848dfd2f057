package cmd

import (
	"fmt"
	"os"

	"stub-server/core/config"
	"stub-server/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var settingsPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Embedded HTTP stub server",
	Long: `Stub Server hosts a small HTTP listener that logs every request it receives,
saves POST bodies to disk and answers with a static JSON payload.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console logger with ISO8601 timestamps, independent of the settings file
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", config.DefaultFile, "path of the settings file")
}

// loadSettings reads the settings file named by --settings.
func loadSettings() (*config.Manager, *config.Config, error) {
	mgr := config.NewManager(settingsPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings (run 'stub-server config init' to create them): %w", err)
	}
	return mgr, cfg, nil
}
