package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"stub-server/core/config"

	"github.com/spf13/cobra"
)

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the settings file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file holding the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(settingsPath); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", settingsPath)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.NewManager(settingsPath).Save(config.Defaults()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", settingsPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings (file, environment and defaults)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadSettings()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(config.Settings(cfg), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting, e.g. set server.port_no 9090",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cfg, err := loadSettings()
		if err != nil {
			return err
		}
		next, err := config.Apply(cfg, args[0], args[1])
		if err != nil {
			return err
		}
		if !mgr.ExistsConfigDifference(next) {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes to save.")
			return nil
		}
		if err := mgr.Save(next); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Settings saved.")
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing settings file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd, configKeysCmd)
	RootCmd.AddCommand(configCmd)
}
