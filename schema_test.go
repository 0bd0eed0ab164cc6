package caseload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDatabase(t *testing.T) {
	t.Parallel()

	t.Run("creates file when absent", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cases.db")
		require.NoError(t, ensureDatabase(path))

		_, err := os.Stat(path)
		require.NoError(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cases.db")
		require.NoError(t, ensureDatabase(path))
		require.NoError(t, ensureDatabase(path))
	})

	t.Run("existing file left untouched", func(t *testing.T) {
		t.Parallel()

		// Contents are not validated; an existing file is a no-op.
		path := filepath.Join(t.TempDir(), "cases.db")
		require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))
		require.NoError(t, ensureDatabase(path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("not a database"), content)
	})
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cases.db")
	require.NoError(t, ensureDatabase(path))
	db := openTestDB(t, path)

	require.NoError(t, ensureTable(ctx, db, "civA"))

	t.Run("creates the fixed column set", func(t *testing.T) {
		rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info('civA') ORDER BY cid`)
		require.NoError(t, err)
		defer rows.Close()

		var columns []string
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			columns = append(columns, name)
		}
		require.NoError(t, rows.Err())

		assert.Equal(t, caseColumns, columns)
	})

	t.Run("idempotent before every chunk", func(t *testing.T) {
		require.NoError(t, ensureTable(ctx, db, "civA"))
		require.NoError(t, ensureTable(ctx, db, "civA"))
		assert.True(t, tableExists(t, db, "civA"))
	})

	t.Run("no rowid or key column is added", func(t *testing.T) {
		var pkCount int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info('civA') WHERE pk > 0`).Scan(&pkCount))
		assert.Zero(t, pkCount)
	})

	t.Run("invalid identifier rejected", func(t *testing.T) {
		err := ensureTable(ctx, db, `bad"name`)
		require.ErrorIs(t, err, ErrInvalidTableName)
	})
}
