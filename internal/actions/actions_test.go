package actions_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ti/internal/actions"
	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/report"
	"github.com/Tiliavir/ti/internal/storage"
)

// Friday noon.
var noon = time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store storage.Store
	out   *bytes.Buffer
	now   time.Time
	a     *actions.Actions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "sheet.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{store: s, out: &bytes.Buffer{}, now: noon}
	f.a = actions.New(s, f.out, actions.WithClock(func() time.Time { return f.now }))
	return f
}

// work records a closed entry through the actions layer.
func (f *fixture) work(t *testing.T, task, project string, start time.Time, d time.Duration) {
	t.Helper()
	f.now = start
	require.NoError(t, f.a.On(task, project, 0))
	f.now = start.Add(d)
	require.NoError(t, f.a.Fin(0))
	f.out.Reset()
}

func TestOnAndFin(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.a.On("build", "proj-x", 10*time.Minute))
	require.Equal(t, "Started proj-x/build at 11:50.\n", f.out.String())

	cur, err := f.store.GetCurrent()
	require.NoError(t, err)
	require.NotNil(t, cur)
	require.True(t, cur.Start.Equal(noon.Add(-10*time.Minute)))

	f.out.Reset()
	f.now = noon.Add(20 * time.Minute)
	require.NoError(t, f.a.Fin(0))
	require.Equal(t, "Finished proj-x/build after 30m 0s.\n", f.out.String())

	cur, err = f.store.GetCurrent()
	require.NoError(t, err)
	require.Nil(t, cur)
}

func TestOnTruncatesToSeconds(t *testing.T) {
	f := newFixture(t)
	f.now = noon.Add(750 * time.Millisecond)
	require.NoError(t, f.a.On("build", "", 0))

	cur, err := f.store.GetCurrent()
	require.NoError(t, err)
	require.True(t, cur.Start.Equal(noon), "start = %v", cur.Start)
}

func TestOnWhileTracking(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.a.On("build", "proj-x", 0))
	require.ErrorIs(t, f.a.On("review", "proj-x", 0), actions.ErrAlreadyTracking)

	logs, err := storage.Collect(f.store.GetLogs("2026-02-27", "2026-02-27"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestOnRequiresTask(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.a.On("", "proj-x", 0), model.ErrInvalidEntry)
}

func TestFinWhenIdle(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.a.Fin(0), actions.ErrNotWorking)
}

func TestFinBeforeStart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.a.On("build", "", 0))
	require.ErrorIs(t, f.a.Fin(time.Hour), model.ErrNegativeDuration)

	// The entry stays open.
	cur, err := f.store.GetCurrent()
	require.NoError(t, err)
	require.NotNil(t, cur)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.a.Status(false), actions.ErrNotWorking)
	require.NoError(t, f.a.Status(true))
	require.Equal(t, "idle\n", f.out.String())

	require.NoError(t, f.a.On("build", "proj-x", 65*time.Minute))
	f.out.Reset()
	require.NoError(t, f.a.Status(true))
	require.Equal(t, "on proj-x/build for 1h 5m 0s\n", f.out.String())

	f.out.Reset()
	require.NoError(t, f.a.Status(false))
	out := f.out.String()
	require.Contains(t, out, "Project: proj-x")
	require.Contains(t, out, "Task: build")
	require.Contains(t, out, "Since: 2026-02-27 10:55")
}

func TestLogWeekDedupsDays(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	f.work(t, "build", "proj-x", day, time.Hour)
	f.work(t, "review", "proj-x", day.Add(2*time.Hour), 30*time.Minute)
	f.work(t, "docs", "proj-y", day.AddDate(0, 0, 1), 15*time.Minute)
	f.now = noon
	require.NoError(t, f.a.On("build", "proj-x", time.Hour))
	f.out.Reset()

	require.NoError(t, f.a.Log(report.Week(noon)))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Equal(t, "Log 2026-02-23 – 2026-03-01", lines[0])
	require.Len(t, lines, 6)

	first := strings.Fields(lines[1])
	require.Equal(t, []string{"Wed", "2026-02-25", "2026-02-25", "09:00–10:00", "1h", "0m", "proj-x", "build"}, first)
	second := strings.Fields(lines[2])
	require.Equal(t, []string{"-", "-", "-"}, second[:3])
	third := strings.Fields(lines[3])
	require.Equal(t, []string{"Thu", "2026-02-26", "2026-02-26"}, third[:3])

	running := strings.Fields(lines[4])
	require.Equal(t, "Fri", running[0])
	require.Equal(t, "2026-02-27", running[2])
	require.Equal(t, "11:00–12:00", running[3])
	require.Equal(t, actions.CurrentMarker, running[len(running)-1])

	require.Equal(t, "Total: 2h 45m", lines[5])
}

func TestLogDedupsEndDate(t *testing.T) {
	f := newFixture(t)
	f.work(t, "deploy", "proj-x", time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC), 2*time.Hour)
	f.work(t, "review", "proj-x", time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC), time.Hour)

	require.NoError(t, f.a.Log(report.Week(noon)))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 4)

	overnight := strings.Fields(lines[1])
	require.Equal(t, []string{"Thu", "2026-02-26", "2026-02-27", "23:00–01:00"}, overnight[:4])
	// Starts on the day the previous entry ended.
	next := strings.Fields(lines[2])
	require.Equal(t, []string{"Fri", "2026-02-27", "-", "09:00–10:00"}, next[:4])
}

func TestLogEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.a.Log(report.Today(noon)))
	require.Equal(t, "Log 2026-02-27\nNo entries found.\n", f.out.String())
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)
	f.work(t, "build", "proj-x", day, time.Hour)
	f.work(t, "review", "proj-x", day.Add(time.Hour), 30*time.Minute)
	f.work(t, "mail", "admin", day.Add(2*time.Hour), 10*time.Minute)
	f.now = noon
	require.NoError(t, f.a.On("build", "proj-x", 0))
	f.out.Reset()

	require.NoError(t, f.a.Report(report.Today(noon), false))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Equal(t, "Friday 2026-02-27", lines[0])
	require.Equal(t, []string{"admin", "mail", "10m"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"proj-x", "build", "1h", "0m"}, strings.Fields(lines[2]))
	require.Equal(t, []string{"-", "review", "30m"}, strings.Fields(lines[3]))
	require.Equal(t, []string{"=", "1h", "30m"}, strings.Fields(lines[4]))
	require.Equal(t, "Total: 1h 40m", lines[5])
	require.Equal(t, "* proj-x/build is running and not included.", lines[len(lines)-1])
}

func TestReportSplit(t *testing.T) {
	f := newFixture(t)
	f.work(t, "build", "proj-x", time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC), time.Hour)
	f.work(t, "build", "proj-x", time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC), time.Hour)

	require.NoError(t, f.a.Report(report.Week(noon), true))
	out := f.out.String()
	require.Equal(t, 3, strings.Count(out, "Total:"))
	require.Equal(t, 4, strings.Count(out, "No entries found."))
	require.Contains(t, out, "Week 2026-W09 2026-02-23 – 2026-03-01")
	require.Contains(t, out, "Monday 2026-02-23")
	require.Contains(t, out, "Saturday 2026-02-28")
	require.NotContains(t, out, "Sunday")
	require.True(t, strings.HasSuffix(out, "Total: 2h 0m\n"), out)
	require.Less(t, strings.Index(out, "Monday"), strings.Index(out, "Tuesday"))
	require.NotContains(t, out, "running")
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	f.work(t, "build, ship", "proj-x", time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC), 90*time.Minute)
	f.now = noon
	require.NoError(t, f.a.On("review", "proj-x", 0))
	f.out.Reset()

	require.NoError(t, f.a.Export(report.Today(noon), actions.FormatCSV))
	records, err := csv.NewReader(f.out).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"date", "project", "task", "start", "end", "duration_minutes"},
		{"2026-02-27", "proj-x", "build, ship", "2026-02-27T09:00:00Z", "2026-02-27T10:30:00Z", "90"},
		{"2026-02-27", "proj-x", "review", "2026-02-27T12:00:00Z", "", ""},
	}, records)
}

func TestExportJSON(t *testing.T) {
	f := newFixture(t)
	f.work(t, "build", "proj-x", time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC), time.Hour)

	require.NoError(t, f.a.Export(report.Today(noon), actions.FormatJSON))
	var entries []model.Entry
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, int64(3600), *entries[0].DurationSeconds)

	f.out.Reset()
	require.NoError(t, f.a.Export(report.Today(noon.AddDate(0, 0, 1)), actions.FormatJSON))
	require.Equal(t, "[]\n", f.out.String())
}

func TestExportUnknownFormat(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.a.Export(report.Today(noon), "md"), actions.ErrUnknownFormat)
}

func TestEditRequiresEditor(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.a.Edit(""), storage.ErrNoEditor)
	require.NoError(t, f.a.Edit("true"))
}
