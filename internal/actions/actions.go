// Package actions implements the user-facing operations on top of a Store.
package actions

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	applog "github.com/Tiliavir/ti/internal/log"
	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/storage"
	"github.com/Tiliavir/ti/internal/timecalc"
)

var (
	// ErrNotWorking means no entry is open.
	ErrNotWorking = errors.New("not working on anything")
	// ErrAlreadyTracking means an entry is already open.
	ErrAlreadyTracking = errors.New("already tracking")
	// ErrUnknownFormat means an export format is not supported.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Actions runs operations against one store and writes their output to out.
type Actions struct {
	store storage.Store
	out   io.Writer
	now   func() time.Time
	log   *slog.Logger
}

// Option configures Actions.
type Option func(*Actions)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Actions) { a.now = now }
}

// New returns Actions operating on store.
func New(store storage.Store, out io.Writer, opts ...Option) *Actions {
	a := &Actions{
		store: store,
		out:   out,
		now:   time.Now,
		log:   applog.Component(applog.ComponentActions),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Actions) clock() time.Time {
	return a.now().Truncate(time.Second)
}

// On starts tracking task under project, ago before now.
func (a *Actions) On(task, project string, ago time.Duration) error {
	cur, err := a.store.GetCurrent()
	if err != nil {
		return err
	}
	if cur != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyTracking, describe(*cur))
	}
	if task == "" {
		return fmt.Errorf("%w: missing task", model.ErrInvalidEntry)
	}

	start := a.clock().Add(-ago)
	if err := a.store.AddTracking(task, project, start); err != nil {
		return err
	}
	a.log.Debug("tracking started", "task", task, "project", project)
	fmt.Fprintf(a.out, "Started %s at %s.\n", describeTask(task, project), start.Format("15:04"))
	return nil
}

// Fin finishes the open entry, ago before now.
func (a *Actions) Fin(ago time.Duration) error {
	cur, err := a.store.GetCurrent()
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNotWorking
	}

	end := a.clock().Add(-ago)
	finished, err := cur.Finish(end)
	if err != nil {
		return err
	}
	if err := a.store.FinishTracking(*cur, end); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Finished %s after %s.\n", describe(*cur), timecalc.FormatElapsed(*finished.DurationSeconds))
	return nil
}

// Status prints the open entry. In short form an idle store prints "idle"
// instead of failing with ErrNotWorking.
func (a *Actions) Status(short bool) error {
	cur, err := a.store.GetCurrent()
	if err != nil {
		return err
	}
	if cur == nil {
		if short {
			fmt.Fprintln(a.out, "idle")
			return nil
		}
		return ErrNotWorking
	}

	elapsed := int64(a.clock().Sub(cur.Start).Seconds())
	if short {
		fmt.Fprintf(a.out, "on %s for %s\n", describe(*cur), timecalc.FormatElapsed(elapsed))
		return nil
	}
	fmt.Fprintln(a.out, "Running:")
	if cur.Project != "" {
		fmt.Fprintf(a.out, "  Project: %s\n", cur.Project)
	}
	fmt.Fprintf(a.out, "  Task: %s\n", cur.Task)
	fmt.Fprintf(a.out, "  Since: %s\n", cur.Start.Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "  Elapsed: %s\n", timecalc.FormatElapsed(elapsed))
	return nil
}

// Edit opens the whole store in editor.
func (a *Actions) Edit(editor string) error {
	if editor == "" {
		return storage.ErrNoEditor
	}
	return a.store.Edit(editor)
}

func describe(e model.Entry) string {
	return describeTask(e.Task, e.Project)
}

func describeTask(task, project string) string {
	if project == "" {
		return task
	}
	return project + "/" + task
}
