package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	applog "github.com/Tiliavir/ti/internal/log"
	"github.com/Tiliavir/ti/internal/model"
)

const createTrackingTable = `
CREATE TABLE IF NOT EXISTS tracking (
  id INTEGER PRIMARY KEY,
  start TEXT,
  "end" TEXT,
  start_date TEXT,
  in_seconds INTEGER,
  is_current INTEGER,
  project TEXT,
  task TEXT
)`

const selectEntry = `SELECT id, start, "end", start_date, in_seconds, is_current, project, task FROM tracking`

// byStart orders rows by the instant of start; the text alone misorders
// starts with different UTC offsets.
const byStart = `julianday(start), start, id`

// SQLiteStore keeps entries in the tracking table. Every call is a single
// auto-committed statement except Edit, which replaces all rows in one
// transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path and creates the tracking table
// when it is missing. An existing table without the expected columns fails
// with ErrSchema and is left untouched.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	logger := applog.Component(applog.ComponentStorage)

	rows, err := s.db.Query(`SELECT name FROM pragma_table_info('tracking')`)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("inspect schema: %w", err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}

	if len(columns) == 0 {
		if _, err := s.db.Exec(createTrackingTable); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		logger.Debug("created tracking table", applog.FieldOperation, applog.OpSchema, applog.FieldPath, s.path)
		return nil
	}

	for _, name := range model.Fields {
		if !columns[name] {
			logger.Warn("tracking table has an incompatible layout",
				applog.FieldOperation, applog.OpSchema, applog.FieldPath, s.path, "missing", name)
			return fmt.Errorf("%w: %s: table tracking lacks column %q", ErrSchema, s.path, name)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (model.Entry, error) {
	var (
		id        int64
		start     string
		end       sql.NullString
		startDate sql.NullString
		seconds   sql.NullFloat64
		current   sql.NullInt64
		project   sql.NullString
		task      sql.NullString
	)
	if err := r.Scan(&id, &start, &end, &startDate, &seconds, &current, &project, &task); err != nil {
		return model.Entry{}, err
	}

	e := model.Entry{
		ID:        strconv.FormatInt(id, 10),
		StartDate: startDate.String,
		IsCurrent: current.Valid && current.Int64 != 0,
		Project:   project.String,
		Task:      task.String,
	}
	t, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return model.Entry{}, fmt.Errorf("row %d: start: %w", id, err)
	}
	e.Start = t
	if end.Valid && end.String != "" {
		t, err := time.Parse(time.RFC3339Nano, end.String)
		if err != nil {
			return model.Entry{}, fmt.Errorf("row %d: end: %w", id, err)
		}
		e.End = &t
	}
	if seconds.Valid {
		n := int64(seconds.Float64)
		e.DurationSeconds = &n
	}
	return e, nil
}

func (s *SQLiteStore) GetCurrent() (*model.Entry, error) {
	row := s.db.QueryRow(selectEntry + ` WHERE is_current = 1 ORDER BY julianday(start) DESC, start DESC, id DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current entry: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) AddTracking(task, project string, start time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO tracking (start, start_date, is_current, project, task) VALUES (?, ?, 1, ?, ?)`,
		start.Format(time.RFC3339Nano), start.Format(model.DateLayout), project, task)
	if err != nil {
		return fmt.Errorf("add tracking: %w", err)
	}
	applog.Component(applog.ComponentStorage).Debug("appended entry",
		applog.FieldOperation, applog.OpAppend, applog.FieldPath, s.path, "task", task)
	return nil
}

// FinishTracking updates the open row matching current. No affected row
// means the stored state changed since current was read.
func (s *SQLiteStore) FinishTracking(current model.Entry, end time.Time) error {
	id, err := strconv.ParseInt(current.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrConsistency, current.ID)
	}
	closed, err := current.Finish(end)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(
		`UPDATE tracking SET is_current = 0, "end" = ?, in_seconds = ?
		 WHERE id = ? AND is_current = 1 AND start = ? AND start_date = ?
		   AND COALESCE(project, '') = ? AND COALESCE(task, '') = ?`,
		end.Format(time.RFC3339Nano), *closed.DurationSeconds,
		id, current.Start.Format(time.RFC3339Nano), current.StartDate, current.Project, current.Task)
	if err != nil {
		return fmt.Errorf("finish tracking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish tracking: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: task %q is not the running entry", ErrConsistency, current.Task)
	}
	applog.Component(applog.ComponentStorage).Debug("finished entry",
		applog.FieldOperation, applog.OpFinish, applog.FieldPath, s.path, "id", id)
	return nil
}

// GetLogs streams matching rows; each iteration runs the query again.
func (s *SQLiteStore) GetLogs(from, to string) iter.Seq2[model.Entry, error] {
	return func(yield func(model.Entry, error) bool) {
		rows, err := s.db.Query(selectEntry+` WHERE start_date >= ? AND start_date <= ? ORDER BY `+byStart, from, to)
		if err != nil {
			yield(model.Entry{}, fmt.Errorf("get logs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				yield(model.Entry{}, fmt.Errorf("get logs: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Entry{}, fmt.Errorf("get logs: %w", err))
		}
	}
}

func (s *SQLiteStore) GetAggregatedLogs(from, to string) iter.Seq2[model.AggregatedLog, error] {
	return func(yield func(model.AggregatedLog, error) bool) {
		rows, err := s.db.Query(
			`SELECT COALESCE(project, ''), COALESCE(task, ''), CAST(SUM(in_seconds) AS INTEGER)
			 FROM tracking
			 WHERE start_date >= ? AND start_date <= ? AND in_seconds IS NOT NULL
			 GROUP BY COALESCE(project, ''), COALESCE(task, '')
			 ORDER BY 1, 2`, from, to)
		if err != nil {
			yield(model.AggregatedLog{}, fmt.Errorf("get aggregated logs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var l model.AggregatedLog
			if err := rows.Scan(&l.Project, &l.Task, &l.TotalSeconds); err != nil {
				yield(model.AggregatedLog{}, fmt.Errorf("get aggregated logs: %w", err))
				return
			}
			if !yield(l, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.AggregatedLog{}, fmt.Errorf("get aggregated logs: %w", err))
		}
	}
}

func (s *SQLiteStore) all() ([]model.Entry, error) {
	rows, err := s.db.Query(selectEntry + ` ORDER BY ` + byStart)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("load entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Edit exports all rows as YAML and, if the edited text parses, replaces
// the table contents in one transaction. Rows keep their id when it is a
// number; other ids are reassigned.
func (s *SQLiteStore) Edit(editor string) error {
	entries, err := s.all()
	if err != nil {
		return err
	}
	yml, err := document{Work: entries}.toYAML()
	if err != nil {
		return err
	}
	edited, err := editScratch(editor, "ti.*.yaml", yml)
	if err != nil {
		return err
	}
	parsed, err := parseYAML(edited)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin edit: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracking`); err != nil {
		return fmt.Errorf("clear tracking: %w", err)
	}
	for _, e := range parsed.Work {
		var id any
		if n, err := strconv.ParseInt(e.ID, 10, 64); err == nil {
			id = n
		}
		var end, seconds any
		if e.End != nil {
			end = e.End.Format(time.RFC3339Nano)
			seconds = *e.DurationSeconds
		}
		current := 0
		if e.IsCurrent {
			current = 1
		}
		_, err := tx.Exec(
			`INSERT INTO tracking (id, start, "end", start_date, in_seconds, is_current, project, task)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, e.Start.Format(time.RFC3339Nano), end, e.StartDate, seconds, current, e.Project, e.Task)
		if err != nil {
			return fmt.Errorf("%w: insert %q: %w", ErrParse, e.Task, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edit: %w", err)
	}
	applog.Component(applog.ComponentStorage).Debug("replaced store from editor",
		applog.FieldOperation, applog.OpEdit, applog.FieldPath, s.path, applog.FieldCount, len(parsed.Work))
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
