package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	applog "github.com/Tiliavir/ti/internal/log"
	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/timecalc"
)

const csvTrue = "True"

// CSVStore keeps one entry per row below a header row naming the fields.
// Appends are O(1); finishing an entry rewrites the whole file.
type CSVStore struct {
	path string
	// header is the column order of the file, kept on every write.
	header []string
}

// NewCSVStore opens the CSV store at path, creating a header-only file if it
// is missing or empty. A header whose field set differs from model.Fields
// fails with ErrSchema.
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path, header: model.Fields}
	logger := applog.Component(applog.ComponentStorage)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("storage error creating directories: %w", err)
		}
		if err := s.write(nil); err != nil {
			return nil, err
		}
		logger.Debug("created csv store", applog.FieldOperation, applog.OpOpen, applog.FieldPath, path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading header: %w", ErrSchema, path, err)
	}
	if _, err := headerIndex(header); err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	s.header = header
	logger.Debug("opened csv store", applog.FieldOperation, applog.OpOpen, applog.FieldPath, path)
	return s, nil
}

// headerIndex maps field names to column positions. The header must contain
// exactly the fields of model.Fields, in any order.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	if len(idx) != len(header) || len(idx) != len(model.Fields) {
		return nil, fmt.Errorf("%w: header %v", ErrSchema, header)
	}
	for _, name := range model.Fields {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: header %v lacks %q", ErrSchema, header, name)
		}
	}
	return idx, nil
}

// Load reads every row, stable-sorted by start_date.
func (s *CSVStore) Load() ([]model.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", s.path, err)
	}
	_, entries, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return entries, nil
}

// decodeCSV parses a whole CSV file into its header and sorted entries.
func decodeCSV(data []byte) ([]string, []model.Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: missing header", ErrSchema)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var entries []model.Entry
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		e, err := rowToEntry(rec, idx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartDate < entries[j].StartDate })
	return header, entries, nil
}

func rowToEntry(rec []string, idx map[string]int) (model.Entry, error) {
	field := func(name string) string {
		if i := idx[name]; i < len(rec) {
			return rec[i]
		}
		return ""
	}

	e := model.Entry{
		ID:        field("id"),
		StartDate: field("start_date"),
		IsCurrent: parseBool(field("is_current")),
		Project:   field("project"),
		Task:      field("task"),
	}

	start, err := time.Parse(time.RFC3339Nano, field("start"))
	if err != nil {
		return model.Entry{}, fmt.Errorf("start: %w", err)
	}
	e.Start = start

	if v := field("end"); v != "" {
		end, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return model.Entry{}, fmt.Errorf("end: %w", err)
		}
		e.End = &end
	}
	if v := field("in_seconds"); v != "" {
		secs, err := parseSeconds(v)
		if err != nil {
			return model.Entry{}, fmt.Errorf("in_seconds: %w", err)
		}
		e.DurationSeconds = &secs
	}
	return e, nil
}

func entryToRow(e model.Entry, header []string) []string {
	values := map[string]string{
		"id":         e.ID,
		"start":      e.Start.Format(time.RFC3339Nano),
		"start_date": e.StartDate,
		"project":    e.Project,
		"task":       e.Task,
	}
	if e.End != nil {
		values["end"] = e.End.Format(time.RFC3339Nano)
	}
	if e.DurationSeconds != nil {
		values["in_seconds"] = strconv.FormatInt(*e.DurationSeconds, 10)
	}
	if e.IsCurrent {
		values["is_current"] = csvTrue
	}

	row := make([]string, len(header))
	for i, name := range header {
		row[i] = values[strings.TrimSpace(name)]
	}
	return row
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// parseSeconds accepts integers and decimal values such as "3600.0".
func parseSeconds(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func encodeCSV(header []string, entries []model.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write(entryToRow(e, header)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// write replaces the whole file with header and entries.
func (s *CSVStore) write(entries []model.Entry) error {
	data, err := encodeCSV(s.header, entries)
	if err != nil {
		return fmt.Errorf("storage error encoding csv: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage error writing %s: %w", s.path, err)
	}
	return nil
}

// GetCurrent returns the last row after sorting if it is open.
func (s *CSVStore) GetCurrent() (*model.Entry, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	last := entries[len(entries)-1]
	if !last.IsCurrent {
		return nil, nil
	}
	return &last, nil
}

// AddTracking appends one open row at the end of the file.
func (s *CSVStore) AddTracking(task, project string, start time.Time) error {
	e := model.NewEntry(timecalc.GenerateID(start), task, project, start)

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("storage error opening %s: %w", s.path, err)
	}
	defer f.Close()

	// A manually edited file may lack the final newline.
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				return fmt.Errorf("storage error writing %s: %w", s.path, err)
			}
		}
	}

	w := csv.NewWriter(f)
	if err := w.Write(entryToRow(e, s.header)); err != nil {
		return fmt.Errorf("storage error writing %s: %w", s.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage error writing %s: %w", s.path, err)
	}

	applog.Component(applog.ComponentStorage).Debug("appended entry",
		applog.FieldOperation, applog.OpAppend, applog.FieldPath, s.path, "task", task)
	return nil
}

// FinishTracking closes the last row, which must equal current, and
// rewrites the file.
func (s *CSVStore) FinishTracking(current model.Entry, end time.Time) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: store is empty", ErrConsistency)
	}
	last := entries[len(entries)-1]
	if !last.IsCurrent || !last.Equal(current) {
		return fmt.Errorf("%w: task %q is not the running entry", ErrConsistency, current.Task)
	}

	closed, err := last.Finish(end)
	if err != nil {
		return err
	}
	entries[len(entries)-1] = closed
	if err := s.write(entries); err != nil {
		return err
	}

	applog.Component(applog.ComponentStorage).Debug("finished entry",
		applog.FieldOperation, applog.OpFinish, applog.FieldPath, s.path, applog.FieldCount, len(entries))
	return nil
}

func (s *CSVStore) GetLogs(from, to string) iter.Seq2[model.Entry, error] {
	return sliceSeq(func() ([]model.Entry, error) {
		entries, err := s.Load()
		if err != nil {
			return nil, err
		}
		return inRange(entries, from, to), nil
	})
}

func (s *CSVStore) GetAggregatedLogs(from, to string) iter.Seq2[model.AggregatedLog, error] {
	return sliceSeq(func() ([]model.AggregatedLog, error) {
		entries, err := s.Load()
		if err != nil {
			return nil, err
		}
		return aggregate(inRange(entries, from, to)), nil
	})
}

// Edit opens a copy of the file in the editor. The store is replaced only
// when the edited copy parses and validates.
func (s *CSVStore) Edit(editor string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("storage error reading %s: %w", s.path, err)
	}
	edited, err := editScratch(editor, "ti.*.csv", data)
	if err != nil {
		return err
	}

	header, entries, err := decodeCSV(edited)
	if err != nil {
		if errors.Is(err, ErrSchema) {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		return err
	}
	if err := validateAll(entries); err != nil {
		return err
	}

	s.header = header
	if err := s.write(entries); err != nil {
		return err
	}
	applog.Component(applog.ComponentStorage).Debug("replaced store from editor",
		applog.FieldOperation, applog.OpEdit, applog.FieldPath, s.path, applog.FieldCount, len(entries))
	return nil
}

func (s *CSVStore) Close() error { return nil }
