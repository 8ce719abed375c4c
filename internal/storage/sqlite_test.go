package storage_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ti/internal/storage"
)

func execSQL(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func TestSQLiteStoreCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.sqlite")
	s, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT name, pk FROM pragma_table_info('tracking') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	pk := ""
	for rows.Next() {
		var name string
		var isPK int
		require.NoError(t, rows.Scan(&name, &isPK))
		names = append(names, name)
		if isPK == 1 {
			pk = name
		}
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"id", "start", "end", "start_date", "in_seconds", "is_current", "project", "task"}, names)
	require.Equal(t, "id", pk)
}

func TestSQLiteStoreIncompatibleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.sqlite")
	execSQL(t, path, `CREATE TABLE tracking (id INTEGER PRIMARY KEY, name TEXT)`)

	_, err := storage.NewSQLiteStore(path)
	require.ErrorIs(t, err, storage.ErrSchema)
}

func TestSQLiteStoreToleratesExtraColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.sqlite")
	execSQL(t, path, `CREATE TABLE tracking (
		id INTEGER PRIMARY KEY, start TEXT, "end" TEXT, start_date TEXT,
		in_seconds INTEGER, is_current INTEGER, project TEXT, task TEXT, notes TEXT)`)

	s, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	track(t, s, "build", "p", t0, time.Hour)
}

func TestSQLiteStoreCurrentPrefersLatestStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.sqlite")
	s, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddTracking("newer", "", t0.Add(time.Hour)))
	require.NoError(t, s.AddTracking("older", "", t0))

	cur := mustCurrent(t, s)
	require.Equal(t, "newer", cur.Task)
}

func TestSQLiteStoreReadsFloatSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.sqlite")
	s, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	execSQL(t, path, `INSERT INTO tracking (start, "end", start_date, in_seconds, is_current, project, task)
		VALUES ('2026-02-27T09:00:00.5Z', '2026-02-27T10:00:00Z', '2026-02-27', 3599.5, 0, NULL, 'legacy')`)

	logs := mustLogs(t, s)
	require.Len(t, logs, 1)
	require.Equal(t, int64(3599), *logs[0].DurationSeconds)
	require.Equal(t, "", logs[0].Project)

	agg, err := storage.Collect(s.GetAggregatedLogs("2026-02-27", "2026-02-27"))
	require.NoError(t, err)
	require.Len(t, agg, 1)
	require.Equal(t, "", agg[0].Project)
}

func TestSQLiteStoreEditKeepsIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewSQLiteStore(filepath.Join(dir, "sheet.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	track(t, s, "a", "p", t0, time.Hour)
	track(t, s, "b", "p", t0.Add(2*time.Hour), time.Hour)
	before := mustLogs(t, s)

	require.NoError(t, s.Edit("true"))
	after := mustLogs(t, s)
	require.Len(t, after, 2)
	require.Equal(t, before[0].ID, after[0].ID)
	require.Equal(t, before[1].ID, after[1].ID)
}
