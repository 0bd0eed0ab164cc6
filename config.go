package caseload

import (
	"log/slog"
)

// Processing constants (rows-based).
const (
	// DefaultChunkRows is the number of rows read from a source file per chunk.
	DefaultChunkRows = 100000
	// insertGroupRows is the maximum number of rows per multi-row INSERT statement.
	insertGroupRows = 1000
	// DefaultTablePrefixLen is the number of leading runes of a file's base name
	// that select its destination table. The archive convention names related
	// files with a shared prefix; 4 runes is the convention the data set ships
	// with. Raise it if unrelated file families collide.
	DefaultTablePrefixLen = 4
	// DefaultDelimiter separates fields in delimited source files.
	DefaultDelimiter = ','
)

// DurabilityProfile is a named bundle of connection settings trading
// crash-safety for write throughput.
type DurabilityProfile int

const (
	// DurabilityNormal keeps the rollback journal and full synchronous writes.
	// A file whose ingestion fails mid-way is rolled back completely.
	DurabilityNormal DurabilityProfile = iota
	// DurabilityRelaxed disables the journal and synchronous flushing, holds an
	// exclusive lock for the connection's lifetime, enlarges the page cache and
	// keeps temporary structures in memory. A crash mid-run can leave the
	// database in an inconsistent state; use only for rebuildable databases.
	DurabilityRelaxed
)

// String returns the profile name used in logs and CLI flags.
func (p DurabilityProfile) String() string {
	if p == DurabilityRelaxed {
		return "relaxed"
	}
	return "normal"
}

// pragmas returns the connection-level PRAGMA statements for the profile.
// Applied once per run; the profile is held constant while any table's files
// are being ingested.
func (p DurabilityProfile) pragmas() []string {
	if p == DurabilityRelaxed {
		return []string{
			"PRAGMA journal_mode = OFF",       // no rollback journal, no crash-safety
			"PRAGMA synchronous = OFF",        // never fsync
			"PRAGMA cache_size = -262144",     // 256MB page cache (negative = KB)
			"PRAGMA locking_mode = EXCLUSIVE", // hold the file lock for the connection lifetime
			"PRAGMA temp_store = MEMORY",      // temp structures in memory
		}
	}
	return []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = FULL",
	}
}

// ProgressFunc is invoked after each file completes (successfully or not) with
// the number of files processed so far, the total, and the base name of the
// file that just finished. It is called on the run's goroutine; long work here
// blocks the pipeline.
type ProgressFunc func(done, total int, currentFile string)

// RunConfig describes one load run. Supplied once per run and never mutated by
// the pipeline.
type RunConfig struct {
	// DatabasePath is the SQLite database file. Created if absent.
	DatabasePath string
	// SourceDir is the root directory walked recursively for source files.
	SourceDir string
	// Delimiter separates fields in .csv sources. Defaults to comma.
	// TSV sources always use tab regardless of this setting.
	Delimiter rune
	// Durability selects the connection durability profile.
	Durability DurabilityProfile
	// SkipIndexes leaves every table unindexed; indexes can be built later with
	// RebuildAllIndexes.
	SkipIndexes bool
	// TablePrefixLen is the number of leading runes of a base name that select
	// the destination table. Defaults to DefaultTablePrefixLen.
	TablePrefixLen int
	// ChunkRows bounds how many rows are held in memory per chunk.
	// Defaults to DefaultChunkRows.
	ChunkRows int
	// Progress, if non-nil, receives per-file progress updates.
	Progress ProgressFunc
	// Logger receives structured pipeline events. Defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults fills zero values with run defaults.
func (c RunConfig) withDefaults() RunConfig {
	if c.Delimiter == 0 {
		c.Delimiter = DefaultDelimiter
	}
	if c.TablePrefixLen <= 0 {
		c.TablePrefixLen = DefaultTablePrefixLen
	}
	if c.ChunkRows <= 0 {
		c.ChunkRows = DefaultChunkRows
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// MaintenanceConfig describes a standalone index maintenance pass over every
// table in an existing database.
type MaintenanceConfig struct {
	// DatabasePath is the SQLite database file. Must already exist.
	DatabasePath string
	// Progress, if non-nil, receives per-table progress updates. The third
	// argument is the table name.
	Progress ProgressFunc
	// Logger receives structured maintenance events. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c MaintenanceConfig) withDefaults() MaintenanceConfig {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
