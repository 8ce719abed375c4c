package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	applog "github.com/Tiliavir/ti/internal/log"
	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/timecalc"
)

// JSONStore keeps all entries in a single JSON document. Every mutation
// reads the document, changes it in memory and writes the whole file.
type JSONStore struct {
	path string
}

// NewJSONStore opens the JSON store at path. A missing or empty file is an
// empty store; a file that is not a valid document fails with ErrSchema.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	applog.Component(applog.ComponentStorage).Debug("opened json store",
		applog.FieldOperation, applog.OpOpen, applog.FieldPath, path)
	return s, nil
}

func (s *JSONStore) load() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		var d document
		d.normalize()
		return d, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("storage error reading %s: %w", s.path, err)
	}

	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return document{}, fmt.Errorf("%w: %s: %w", ErrSchema, s.path, err)
	}
	d.normalize()
	return d, nil
}

func (s *JSONStore) dump(d document) error {
	d.normalize()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage error writing %s: %w", s.path, err)
	}
	return nil
}

// Load returns all entries in document order.
func (s *JSONStore) Load() ([]model.Entry, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.Work, nil
}

func (s *JSONStore) GetCurrent() (*model.Entry, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return currentOf(d.Work), nil
}

func (s *JSONStore) AddTracking(task, project string, start time.Time) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	d.Work = append(d.Work, model.NewEntry(timecalc.GenerateID(start), task, project, start))
	if err := s.dump(d); err != nil {
		return err
	}
	applog.Component(applog.ComponentStorage).Debug("appended entry",
		applog.FieldOperation, applog.OpAppend, applog.FieldPath, s.path, "task", task)
	return nil
}

func (s *JSONStore) FinishTracking(current model.Entry, end time.Time) error {
	d, err := s.load()
	if err != nil {
		return err
	}

	i := -1
	for j := len(d.Work) - 1; j >= 0; j-- {
		if d.Work[j].IsCurrent && d.Work[j].Equal(current) {
			i = j
			break
		}
	}
	if i < 0 {
		return fmt.Errorf("%w: task %q is not the running entry", ErrConsistency, current.Task)
	}

	closed, err := d.Work[i].Finish(end)
	if err != nil {
		return err
	}
	d.Work[i] = closed
	if err := s.dump(d); err != nil {
		return err
	}
	applog.Component(applog.ComponentStorage).Debug("finished entry",
		applog.FieldOperation, applog.OpFinish, applog.FieldPath, s.path)
	return nil
}

func (s *JSONStore) GetLogs(from, to string) iter.Seq2[model.Entry, error] {
	return sliceSeq(func() ([]model.Entry, error) {
		entries, err := s.Load()
		if err != nil {
			return nil, err
		}
		return inRange(entries, from, to), nil
	})
}

func (s *JSONStore) GetAggregatedLogs(from, to string) iter.Seq2[model.AggregatedLog, error] {
	return sliceSeq(func() ([]model.AggregatedLog, error) {
		entries, err := s.Load()
		if err != nil {
			return nil, err
		}
		return aggregate(inRange(entries, from, to)), nil
	})
}

// Edit renders the document as YAML in a scratch file and writes the
// edited result back as JSON. A parse failure leaves the store untouched.
func (s *JSONStore) Edit(editor string) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	yml, err := d.toYAML()
	if err != nil {
		return err
	}
	edited, err := editScratch(editor, "ti.*", yml)
	if err != nil {
		return err
	}
	parsed, err := parseYAML(edited)
	if err != nil {
		applog.Component(applog.ComponentStorage).Error("that YAML didn't appear to be valid",
			applog.FieldOperation, applog.OpEdit, applog.FieldError, err)
		return err
	}
	return s.dump(parsed)
}

func (s *JSONStore) Close() error { return nil }
