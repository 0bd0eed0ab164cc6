package caseload

import (
	"context"
	"database/sql"
	"fmt"
)

// indexedColumns is the fixed set of secondary-index columns: case name, case
// number, court, cause of action. Chosen to match the lookups the archive is
// queried by.
var indexedColumns = []string{
	colCaseName,
	colCaseNumber,
	colCourt,
	colCause,
}

// indexName derives the deterministic index name for a (table, column) pair.
func indexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, column)
}

// rebuildTableIndexes drops and recreates the four secondary indexes of a
// table inside one transaction. An index is fully disposable: drop-then-create,
// never incrementally updated, and the transaction keeps the swap atomic from
// the caller's perspective. Any failure rolls back all four descriptors.
func rebuildTableIndexes(ctx context.Context, db *sql.DB, table string) error {
	if err := validateTableName(table); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}

	for _, column := range indexedColumns {
		name := indexName(table, column)

		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP INDEX IF EXISTS %s", quoteIdent(name))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop index %s: %w", name, err)
		}
		create := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(name), quoteIdent(table), quoteIdent(column))
		if _, err := tx.ExecContext(ctx, create); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit indexes for %s: %w", table, err)
	}
	return nil
}

// listTables enumerates user tables via catalog introspection, in stable order.
func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("introspect catalog: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect catalog: %w", err)
	}
	return tables, nil
}
