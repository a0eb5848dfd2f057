package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"stub-server/core/logtail"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var followLogs bool

// logsCmd represents the logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the communication log",
	Long:  `Prints the communication log file. With --follow new lines are printed as they are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadSettings()
		if err != nil {
			return err
		}
		if cfg.Log.File == "" {
			return fmt.Errorf("log.file is empty, requests are only logged to the console")
		}

		w, err := logtail.New(cfg.Log.File, zap.NewNop())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		content, err := w.ReadContent()
		if err != nil && !followLogs {
			return err
		}
		fmt.Fprint(out, content)
		if !followLogs {
			return nil
		}

		var mu sync.Mutex
		printed := content
		w.OnChange(func(next string) {
			mu.Lock()
			defer mu.Unlock()
			if strings.HasPrefix(next, printed) {
				fmt.Fprint(out, next[len(printed):])
			} else {
				// rotated
				fmt.Fprint(out, next)
			}
			printed = next
		})
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		select {
		case <-sigs:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "keep printing new log lines")
	RootCmd.AddCommand(logsCmd)
}
