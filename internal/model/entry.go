package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the layout of StartDate and of every date range bound.
const DateLayout = "2006-01-02"

// Fields lists the persisted field names in canonical order.
var Fields = []string{"id", "start", "end", "start_date", "in_seconds", "is_current", "project", "task"}

// Entry represents a single tracked time span.
type Entry struct {
	ID              string     `json:"id" yaml:"id"`
	Start           time.Time  `json:"start" yaml:"start"`
	End             *time.Time `json:"end" yaml:"end"`
	StartDate       string     `json:"start_date" yaml:"start_date"`
	DurationSeconds *int64     `json:"in_seconds" yaml:"in_seconds"`
	IsCurrent       bool       `json:"is_current" yaml:"is_current"`
	Project         string     `json:"project" yaml:"project"`
	Task            string     `json:"task" yaml:"task"`
}

// AggregatedLog is the total tracked time of one (project, task) pair.
type AggregatedLog struct {
	Project      string `json:"project"`
	Task         string `json:"task"`
	TotalSeconds int64  `json:"total_seconds"`
}

var (
	ErrNegativeDuration = errors.New("end is before start")
	ErrInvalidEntry     = errors.New("invalid entry")
)

// NewEntry builds an open entry starting at start.
func NewEntry(id, task, project string, start time.Time) Entry {
	return Entry{
		ID:        id,
		Start:     start,
		StartDate: start.Format(DateLayout),
		IsCurrent: true,
		Project:   project,
		Task:      task,
	}
}

// Finish returns a closed copy of e ending at end.
func (e Entry) Finish(end time.Time) (Entry, error) {
	if end.Before(e.Start) {
		return Entry{}, fmt.Errorf("%w: %s < %s", ErrNegativeDuration,
			end.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	dur := int64(end.Sub(e.Start).Seconds())
	e.End = &end
	e.DurationSeconds = &dur
	e.IsCurrent = false
	return e, nil
}

// Equal reports whether e and o match field for field. Times compare by instant.
func (e Entry) Equal(o Entry) bool {
	if e.ID != o.ID || e.StartDate != o.StartDate || e.IsCurrent != o.IsCurrent ||
		e.Project != o.Project || e.Task != o.Task || !e.Start.Equal(o.Start) {
		return false
	}
	if (e.End == nil) != (o.End == nil) || (e.End != nil && !e.End.Equal(*o.End)) {
		return false
	}
	if (e.DurationSeconds == nil) != (o.DurationSeconds == nil) ||
		(e.DurationSeconds != nil && *e.DurationSeconds != *o.DurationSeconds) {
		return false
	}
	return true
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	switch {
	case e.Start.IsZero():
		return fmt.Errorf("%w: missing start", ErrInvalidEntry)
	case e.Task == "":
		return fmt.Errorf("%w: missing task", ErrInvalidEntry)
	case e.StartDate != e.Start.Format(DateLayout):
		return fmt.Errorf("%w: start_date %q does not match start %s", ErrInvalidEntry,
			e.StartDate, e.Start.Format(time.RFC3339))
	case (e.End == nil) != (e.DurationSeconds == nil):
		return fmt.Errorf("%w: end and in_seconds must be set together", ErrInvalidEntry)
	case e.IsCurrent && e.End != nil:
		return fmt.Errorf("%w: current entry has an end", ErrInvalidEntry)
	case !e.IsCurrent && e.End == nil:
		return fmt.Errorf("%w: finished entry has no end", ErrInvalidEntry)
	}
	if e.End != nil {
		if e.End.Before(e.Start) {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrNegativeDuration)
		}
		if want := int64(e.End.Sub(e.Start).Seconds()); *e.DurationSeconds != want {
			return fmt.Errorf("%w: in_seconds %d, want %d", ErrInvalidEntry, *e.DurationSeconds, want)
		}
	}
	return nil
}
