// Package caseload bulk-loads a directory tree of legal-case archive files
// into tables of an embedded SQLite database and maintains secondary indexes
// over the loaded tables.
//
// The archive is a collection of delimited text files (plus compressed, XLSX,
// and Parquet variants) whose base-name prefix selects the destination table.
// Every table carries the same fixed thirteen-column case-record schema;
// loading is append-only and chunked so arbitrarily large files stream through
// bounded memory.
//
// # Basic Usage
//
//	report, err := caseload.Create(ctx, caseload.RunConfig{
//	    DatabasePath: "cases.db",
//	    SourceDir:    "inputCSV",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d/%d files loaded\n", report.FilesSucceeded, report.FilesTotal)
//
// A run with RunConfig.SkipIndexes defers all index building; the standalone
// RebuildAllIndexes maintenance operation produces the same index set later.
//
// # Durability
//
// Two connection profiles are supported. DurabilityNormal keeps SQLite's
// journal and synchronous writes, so a failed file rolls back cleanly.
// DurabilityRelaxed trades all crash-safety for bulk-load throughput: no
// journal, no fsync, exclusive file lock. Use it only for databases that can
// be rebuilt from their source files.
package caseload
