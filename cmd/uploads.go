package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"stub-server/core/database"
	"stub-server/feature/upload"

	"github.com/spf13/cobra"
)

var uploadsLimit int

// uploadsCmd represents the uploads command
var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Inspect saved uploads",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent uploads recorded in the journal",
	Long:  `Lists uploads from the database journal (database.enabled must be true).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadSettings()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			return fmt.Errorf("the upload journal is disabled (set database.enabled to true)")
		}

		db, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		entries, err := upload.NewJournal(db).List(cmd.Context(), uploadsLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tCOMMAND\tSIZE\tFILE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
				e.ID, e.CreatedAt.Format("2006-01-02 15:04:05.000"), e.Command, e.Size,
				filepath.Join(e.Directory, e.Filename))
		}
		return tw.Flush()
	},
}

func init() {
	uploadsListCmd.Flags().IntVarP(&uploadsLimit, "limit", "n", 50, "number of entries to show")
	uploadsCmd.AddCommand(uploadsListCmd)
	RootCmd.AddCommand(uploadsCmd)
}
