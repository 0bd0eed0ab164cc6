package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawdata/caseload"
)

func newCreateCmd() *cobra.Command {
	var (
		dbPath      string
		sourceDir   string
		delimiter   string
		quick       bool
		skipIndexes bool
		prefixLen   int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or extend the case database from a source directory",
		Long: `Create walks the source directory recursively, loads every supported file
into the database table selected by its file-name prefix, and rebuilds each
table's indexes when that table's contiguous file run ends.

Loading is append-only: re-running over the same input appends every row
again. The --quick profile disables the journal and synchronous writes for
speed; a crash mid-run can then leave the database inconsistent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(delimiter) != 1 {
				return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
			}

			cfg := caseload.RunConfig{
				DatabasePath:   dbPath,
				SourceDir:      sourceDir,
				Delimiter:      rune(delimiter[0]),
				SkipIndexes:    skipIndexes,
				TablePrefixLen: prefixLen,
				Logger:         slog.Default(),
				Progress: func(done, total int, current string) {
					fmt.Fprintf(os.Stderr, "\r[%d/%d] %s", done, total, current)
					if done == total {
						fmt.Fprintln(os.Stderr)
					}
				},
			}
			if quick {
				cfg.Durability = caseload.DurabilityRelaxed
			}

			report, err := caseload.Create(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %d/%d files (%d rows) into %s in %s\n",
				report.FilesSucceeded, report.FilesTotal, report.RowsInserted,
				dbPath, report.Elapsed.Round(time.Millisecond))
			if report.LastErr != nil {
				return fmt.Errorf("completed with %d failure(s), last: %w", report.FilesFailed, report.LastErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "cases.db", "SQLite database file")
	cmd.Flags().StringVar(&sourceDir, "dir", "inputCSV", "Directory to scan for source files")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "Field delimiter for .csv sources")
	cmd.Flags().BoolVar(&quick, "quick", false, "Relaxed durability: journal and fsync off, exclusive lock")
	cmd.Flags().BoolVar(&skipIndexes, "skip-indexes", false, "Skip index building (use 'reindex' later)")
	cmd.Flags().IntVar(&prefixLen, "prefix-len", caseload.DefaultTablePrefixLen, "File-name prefix length selecting the table")

	return cmd
}
