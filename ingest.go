package caseload

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// openSource is swapped in tests.
var openSource = openSourceReader

// openRunDatabase opens the single writer connection for a run and applies the
// durability profile. SQLite tolerates exactly one writer, so the pool is
// pinned to one connection; the relaxed profile additionally takes an
// exclusive file lock for the connection's lifetime.
func openRunDatabase(path string, profile DurabilityProfile) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseOpen, path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range profile.pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseOpen, pragma, err)
		}
	}
	return db, nil
}

// ingestFile streams one source file into its destination table.
//
// The whole file is one logical unit: the table is ensured and every chunk
// appended inside a single transaction, committed when the file completes.
// Any parse or insert error rolls the file back so no partial rows persist.
// A file with a header but zero data rows still creates the table and commits.
// Returns the number of rows appended and the elapsed wall time.
func ingestFile(ctx context.Context, db *sql.DB, filePath, table string, cfg RunConfig) (rows int64, elapsed time.Duration, err error) {
	start := time.Now()

	format := detectFormat(filePath)
	if format == formatUnsupported {
		return 0, time.Since(start), fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
	}

	reader, closeReader, err := openSource(filePath)
	if err != nil {
		return 0, time.Since(start), err
	}
	defer func() {
		// A close failure after a successful commit must not fail the file:
		// its rows are durable by then. Log and move on.
		if closeErr := closeReader(); closeErr != nil && err == nil {
			cfg.Logger.Warn("source_close_failed",
				slog.String("file", filePath),
				slog.String("error", closeErr.Error()))
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, time.Since(start), fmt.Errorf("begin transaction: %w", err)
	}

	if err = ensureTable(ctx, tx, table); err != nil {
		_ = tx.Rollback()
		return 0, time.Since(start), err
	}

	loggedSkips := false
	err = parseSource(ctx, reader, format, cfg.Delimiter, cfg.ChunkRows, func(batch *recordBatch) error {
		if !loggedSkips && len(batch.skipped) > 0 {
			cfg.Logger.Debug("columns_skipped",
				slog.String("file", filePath),
				slog.String("table", table),
				slog.Any("columns", batch.skipped))
			loggedSkips = true
		}
		n, insertErr := insertBatch(ctx, tx, table, batch)
		rows += n
		return insertErr
	})
	if err != nil {
		// With the relaxed profile the journal is off and this rollback is
		// best-effort only; the documented risk of that profile.
		_ = tx.Rollback()
		return 0, time.Since(start), err
	}

	if err = tx.Commit(); err != nil {
		return 0, time.Since(start), fmt.Errorf("commit %s: %w", filePath, err)
	}
	return rows, time.Since(start), nil
}

// insertBatch appends one record batch to the table, preserving column order
// and row order. Rows are grouped into multi-row INSERT statements of at most
// insertGroupRows rows; empty fields are bound as NULL. No rowid or primary
// key column is generated.
func insertBatch(ctx context.Context, tx *sql.Tx, table string, batch *recordBatch) (int64, error) {
	if len(batch.rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(batch.columns))
	for i, col := range batch.columns {
		quoted[i] = quoteIdent(col)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		quoteIdent(table), strings.Join(quoted, ", "))
	rowTuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(batch.columns)), ", ") + ")"

	var inserted int64
	for startRow := 0; startRow < len(batch.rows); startRow += insertGroupRows {
		endRow := min(startRow+insertGroupRows, len(batch.rows))
		group := batch.rows[startRow:endRow]

		tuples := make([]string, len(group))
		args := make([]any, 0, len(group)*len(batch.columns))
		for i, row := range group {
			tuples[i] = rowTuple
			for _, value := range row {
				if value == "" {
					args = append(args, nil)
				} else {
					args = append(args, value)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, prefix+strings.Join(tuples, ", "), args...); err != nil {
			return inserted, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted += int64(len(group))
	}
	return inserted, nil
}
