package caseload

import "errors"

// Sentinel errors for the loading pipeline. Fatal errors abort a run before any
// file is touched; the remaining kinds are recovered at the file or table
// boundary and surfaced through the run report.
var (
	// ErrDirectoryNotFound indicates the source directory does not exist or is
	// not a directory. Fatal.
	ErrDirectoryNotFound = errors.New("caseload: source directory not found")

	// ErrDatabaseOpen indicates the database file could not be created or opened. Fatal.
	ErrDatabaseOpen = errors.New("caseload: cannot open database")

	// ErrUnsupportedFormat indicates a file extension outside the supported set.
	ErrUnsupportedFormat = errors.New("caseload: unsupported file format")

	// ErrInvalidTableName indicates a derived table name failed identifier validation.
	ErrInvalidTableName = errors.New("caseload: invalid table name")

	// ErrEmptySource indicates a source file with no header row.
	ErrEmptySource = errors.New("caseload: empty source file")

	// ErrNoSchemaColumns indicates a header with no recognized archive columns.
	ErrNoSchemaColumns = errors.New("caseload: no recognized schema columns in header")

	// ErrNoTables indicates catalog introspection found no tables to maintain.
	ErrNoTables = errors.New("caseload: no tables found in database")
)
