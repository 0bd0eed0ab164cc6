package caseload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunReport summarizes one load run. Every file that could be processed was
// attempted; per-file and per-table failures are counted here rather than
// aborting the run.
type RunReport struct {
	// FilesTotal is the number of source files discovered.
	FilesTotal int
	// FilesSucceeded is the number of files fully committed.
	FilesSucceeded int
	// FilesFailed is the number of files rolled back or skipped.
	FilesFailed int
	// RowsInserted is the total number of data rows appended.
	RowsInserted int64
	// TablesIndexed lists tables whose indexes were rebuilt, in completion order.
	TablesIndexed []string
	// LastErr is the last recovered error, if any occurred. A non-nil LastErr
	// with a returned nil error means a partial success, never a silent one.
	LastErr error
	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration
}

// MaintenanceReport summarizes a standalone index rebuild over every table.
type MaintenanceReport struct {
	// TablesTotal is the number of tables found in the database.
	TablesTotal int
	// TablesIndexed lists tables whose indexes were rebuilt.
	TablesIndexed []string
	// LastErr is the last recovered per-table error, if any occurred.
	LastErr error
	// Elapsed is the wall time of the maintenance pass.
	Elapsed time.Duration
}

// Create bulk-loads every supported file under cfg.SourceDir into the database
// at cfg.DatabasePath, one destination table per distinct file-name prefix,
// and rebuilds each table's indexes once its contiguous file run ends.
//
// Preparation errors (missing directory, unopenable database) are fatal and
// returned before any file is touched. Per-file ingestion errors and per-table
// index errors are recovered: logged, counted in the report, and the run
// continues with the next file. Loading is append-only: re-running over the
// same input appends every row again, and deduplication is explicitly not
// performed.
//
// ctx cancellation is honored between files and between chunks: the in-flight
// file's transaction is rolled back, previously committed files stay, and
// ctx.Err() is returned alongside the partial report.
func Create(ctx context.Context, cfg RunConfig) (*RunReport, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	files, err := findSourceFiles(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	if err := ensureDatabase(cfg.DatabasePath); err != nil {
		return nil, err
	}
	db, err := openRunDatabase(cfg.DatabasePath, cfg.Durability)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cfg.Logger.Info("run_started",
		slog.String("database", cfg.DatabasePath),
		slog.String("source_dir", cfg.SourceDir),
		slog.Int("files", len(files)),
		slog.String("durability", cfg.Durability.String()),
		slog.Bool("skip_indexes", cfg.SkipIndexes))

	report := &RunReport{FilesTotal: len(files)}
	prevTable := ""
	prevLoaded := false

	finishTable := func(table string) {
		if cfg.SkipIndexes || table == "" {
			return
		}
		indexStart := time.Now()
		if err := rebuildTableIndexes(ctx, db, table); err != nil {
			cfg.Logger.Warn("index_rebuild_failed",
				slog.String("table", table),
				slog.String("error", err.Error()))
			report.LastErr = fmt.Errorf("rebuild indexes for %s: %w", table, err)
			return
		}
		report.TablesIndexed = append(report.TablesIndexed, table)
		cfg.Logger.Info("indexes_rebuilt",
			slog.String("table", table),
			slog.Duration("elapsed", time.Since(indexStart)))
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		base := filepath.Base(file)
		table, err := routeTable(base, cfg.TablePrefixLen)
		if err != nil {
			cfg.Logger.Warn("file_skipped",
				slog.String("file", file),
				slog.String("error", err.Error()))
			report.FilesFailed++
			report.LastErr = fmt.Errorf("route %s: %w", file, err)
			reportProgress(cfg.Progress, i+1, len(files), base)
			continue
		}

		// A table's contiguous file run ends when the next file routes
		// elsewhere; that is the single point its indexes are rebuilt. A table
		// none of whose files committed has nothing to index.
		if table != prevTable {
			if prevLoaded {
				finishTable(prevTable)
			}
			prevTable = table
			prevLoaded = false
		}

		rows, elapsed, err := ingestFile(ctx, db, file, table, cfg)
		if err != nil {
			if ctx.Err() != nil {
				report.FilesFailed++
				report.LastErr = err
				report.Elapsed = time.Since(start)
				return report, ctx.Err()
			}
			cfg.Logger.Warn("ingest_failed",
				slog.String("file", file),
				slog.String("table", table),
				slog.String("error", err.Error()))
			report.FilesFailed++
			report.LastErr = fmt.Errorf("ingest %s: %w", file, err)
		} else {
			cfg.Logger.Info("file_loaded",
				slog.String("file", base),
				slog.String("table", table),
				slog.Int64("rows", rows),
				slog.Duration("elapsed", elapsed))
			report.FilesSucceeded++
			report.RowsInserted += rows
			prevLoaded = true
		}

		reportProgress(cfg.Progress, i+1, len(files), base)
	}
	if prevLoaded {
		finishTable(prevTable)
	}

	report.Elapsed = time.Since(start)
	cfg.Logger.Info("run_finished",
		slog.Int("succeeded", report.FilesSucceeded),
		slog.Int("failed", report.FilesFailed),
		slog.Int64("rows", report.RowsInserted),
		slog.Duration("elapsed", report.Elapsed))
	return report, nil
}

// RebuildAllIndexes rebuilds the four secondary indexes of every table in an
// existing database. This is the standalone maintenance operation, independent
// of any ingestion run; it produces the same index names ingestion-time
// rebuilding would, so a run loaded with SkipIndexes can be indexed later.
//
// Failure to open the database or enumerate tables is fatal. Per-table rebuild
// failures are recovered and reported.
func RebuildAllIndexes(ctx context.Context, cfg MaintenanceConfig) (*MaintenanceReport, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	// Opening a missing path would create an empty database file; maintenance
	// only operates on databases that already exist.
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseOpen, cfg.DatabasePath, err)
	}

	db, err := openRunDatabase(cfg.DatabasePath, DurabilityNormal)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTables, cfg.DatabasePath)
	}

	report := &MaintenanceReport{TablesTotal: len(tables)}
	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		if err := rebuildTableIndexes(ctx, db, table); err != nil {
			cfg.Logger.Warn("index_rebuild_failed",
				slog.String("table", table),
				slog.String("error", err.Error()))
			report.LastErr = fmt.Errorf("rebuild indexes for %s: %w", table, err)
		} else {
			report.TablesIndexed = append(report.TablesIndexed, table)
		}
		reportProgress(cfg.Progress, i+1, len(tables), table)
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

func reportProgress(progress ProgressFunc, done, total int, current string) {
	if progress != nil {
		progress(done, total, current)
	}
}
