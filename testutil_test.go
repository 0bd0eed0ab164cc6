package caseload

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// archiveHeader is the full 15-column header of the case archive as shipped:
// the 13 schema columns plus the two never-ingested ones.
var archiveHeader = []string{
	colOriginalLink,
	colCaseNumber,
	colCaseName,
	colCourt,
	colRegion,
	colCaseType,
	colCaseTypeCode,
	colSourceLabel,
	colStage,
	colJudgmentDate,
	colPublishDate,
	colParties,
	colCause,
	colLegalBasis,
	colFullText,
}

// archiveRow returns one synthetic archive record aligned to archiveHeader.
// The region field is left empty so NULL handling is exercised on every row.
func archiveRow(i int) []string {
	return []string{
		fmt.Sprintf("https://example.invalid/doc/%d", i),
		fmt.Sprintf("（2023）粤01民终%d号", i),
		fmt.Sprintf("某某诉某某合同纠纷案%d", i),
		"广州市中级人民法院",
		"", // region intentionally empty
		"民事案件",
		"02",
		"裁判文书网",
		"二审",
		"2023-06-01",
		"2023-12-01",
		fmt.Sprintf("原告%d;被告%d", i, i),
		"合同纠纷",
		"《中华人民共和国民法典》",
		fmt.Sprintf("全文内容 %d", i),
	}
}

func marshalCSV(t *testing.T, header []string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

// writeArchiveCSV writes a synthetic archive file with n data rows.
func writeArchiveCSV(t *testing.T, path string, n int) {
	t.Helper()
	rows := make([][]string, 0, n)
	for i := range n {
		rows = append(rows, archiveRow(i))
	}
	require.NoError(t, os.WriteFile(path, marshalCSV(t, archiveHeader, rows), 0o600))
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := openRunDatabase(path, DurabilityNormal)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rowCount(t *testing.T, db *sql.DB, table string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count))
	return count
}

// tableIndexNames returns the index names of a table from the catalog.
func tableIndexNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? ORDER BY name`, table)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count))
	return count > 0
}
