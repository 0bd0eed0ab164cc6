package caseload

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// Column names of the case archive. The schema is fixed and known in advance:
// every destination table carries the same thirteen TEXT columns, created
// before any data is written and never altered afterwards.
const (
	colOriginalLink = "原始链接" // original link
	colCaseNumber   = "案号"   // case number
	colCaseName     = "案件名称" // case name
	colCourt        = "法院"   // court
	colRegion       = "所属地区" // region
	colCaseType     = "案件类型" // case type
	colStage        = "审理程序" // procedure stage
	colJudgmentDate = "裁判日期" // judgment date
	colPublishDate  = "公开日期" // publication date
	colParties      = "当事人"  // parties
	colCause        = "案由"   // cause of action
	colLegalBasis   = "法律依据" // legal basis
	colFullText     = "全文"   // full text

	// Archive columns that are never ingested even when present in a file.
	colCaseTypeCode = "案件类型编码" // category code
	colSourceLabel  = "来源"     // source label
)

// caseColumns is the fixed column set of every destination table, in creation
// and insert order.
var caseColumns = []string{
	colOriginalLink,
	colCaseNumber,
	colCaseName,
	colCourt,
	colRegion,
	colCaseType,
	colStage,
	colJudgmentDate,
	colPublishDate,
	colParties,
	colCause,
	colLegalBasis,
	colFullText,
}

// droppedColumns are excluded from ingestion regardless of their presence in
// the source file.
var droppedColumns = map[string]struct{}{
	colCaseTypeCode: {},
	colSourceLabel:  {},
}

// schemaColumns is the lookup form of caseColumns.
var schemaColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(caseColumns))
	for _, c := range caseColumns {
		m[c] = struct{}{}
	}
	return m
}()

// execer abstracts *sql.DB and *sql.Tx for DDL issued inside or outside a
// transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ensureDatabase creates an empty database file at path if none exists.
// Idempotent; an existing file is left untouched and not validated.
func ensureDatabase(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", ErrDatabaseOpen, path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseOpen, path, err)
	}
	defer db.Close()

	// Ping forces the file into existence.
	if err := db.Ping(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseOpen, path, err)
	}
	return nil
}

// ensureTable creates the destination table with the fixed case schema if it
// does not exist. Safe to call repeatedly; a cheap no-op after the first call.
// Runs in the caller's transaction when ex is a *sql.Tx.
func ensureTable(ctx context.Context, ex execer, table string) error {
	if err := validateTableName(table); err != nil {
		return err
	}

	columns := make([]string, 0, len(caseColumns))
	for _, col := range caseColumns {
		columns = append(columns, quoteIdent(col)+" TEXT")
	}

	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table),
		strings.Join(columns, ", "),
	)
	if _, err := ex.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// quoteIdent wraps an identifier in double quotes. Identifiers reach this
// point only after validateTableName or from the fixed column set, so the
// quoted form cannot be escaped.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
