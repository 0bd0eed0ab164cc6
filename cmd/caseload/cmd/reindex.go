package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawdata/caseload"
)

func newReindexCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Drop and recreate the secondary indexes of every table",
		Long: `Reindex enumerates every table in the database and rebuilds its four
secondary indexes (case name, case number, court, cause of action). This is
the standalone maintenance counterpart of the index rebuilding done during
'create'; a database loaded with --skip-indexes gets the same index set here.

Rebuilding drops each index first, so expect the full cost of index creation
on every table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := caseload.RebuildAllIndexes(cmd.Context(), caseload.MaintenanceConfig{
				DatabasePath: dbPath,
				Logger:       slog.Default(),
				Progress: func(done, total int, table string) {
					fmt.Fprintf(os.Stderr, "\r[%d/%d] %s", done, total, table)
					if done == total {
						fmt.Fprintln(os.Stderr)
					}
				},
			})
			if err != nil {
				return err
			}

			fmt.Printf("Rebuilt indexes for %d/%d tables in %s\n",
				len(report.TablesIndexed), report.TablesTotal, report.Elapsed.Round(time.Millisecond))
			if report.LastErr != nil {
				return fmt.Errorf("completed with failures, last: %w", report.LastErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "cases.db", "SQLite database file")

	return cmd
}
