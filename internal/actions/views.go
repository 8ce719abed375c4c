package actions

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/report"
	"github.com/Tiliavir/ti/internal/storage"
	"github.com/Tiliavir/ti/internal/timecalc"
)

// CurrentMarker flags the open entry in log output.
const CurrentMarker = "*"

func (a *Actions) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

// Log prints every entry of p. Multi-day periods get day-of-week, start date
// and end date columns with repeated values blanked. Open entries run until now.
func (a *Actions) Log(p report.Period) error {
	entries, err := storage.Collect(a.store.GetLogs(p.FirstDate(), p.LastDate()))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Log %s\n", p)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries found.")
		return nil
	}

	now := a.clock()
	multiDay := !p.IsSingleDay()
	dedup := report.NewDedup()
	w := a.table()
	var total int64
	for _, e := range entries {
		end, marker := now, CurrentMarker
		if e.End != nil {
			end, marker = *e.End, ""
		}
		seconds := int64(end.Sub(e.Start).Seconds())
		if e.DurationSeconds != nil {
			seconds = *e.DurationSeconds
		}
		total += seconds

		if multiDay {
			fmt.Fprintf(w, "%s\t%s\t%s\t",
				dedup.Value("weekday", e.Start.Format("Mon")),
				dedup.Value("date", e.StartDate),
				dedup.Value("end_date", end.Format(model.DateLayout)))
		}
		fmt.Fprintf(w, "%s–%s\t%s\t%s\t%s\t%s\n",
			e.Start.Format("15:04"), end.Format("15:04"),
			timecalc.FormatDuration(seconds), e.Project, e.Task, marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %s\n", timecalc.FormatDuration(total))
	return nil
}

// Report prints aggregated totals for p, optionally split by day. The open
// entry is never counted; if it lies in p a note says so.
func (a *Actions) Report(p report.Period, split bool) error {
	sections, err := report.Build(a.store, p, split)
	if err != nil {
		return err
	}
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		if err := a.printSection(sec); err != nil {
			return err
		}
	}

	cur, err := a.store.GetCurrent()
	if err != nil {
		return err
	}
	if cur != nil && p.Contains(cur.StartDate) {
		fmt.Fprintf(a.out, "\n%s %s is running and not included.\n", CurrentMarker, describe(*cur))
	}
	return nil
}

func (a *Actions) printSection(sec report.Section) error {
	fmt.Fprintf(a.out, "%s %s\n", sec.Period.Label(), sec.Period)
	if len(sec.Rows) == 0 {
		fmt.Fprintln(a.out, "No entries found.")
		return nil
	}

	dedup := report.NewDedup()
	w := a.table()
	for _, r := range sec.Rows {
		switch r.Kind {
		case report.SubtotalRow:
			fmt.Fprintf(w, "\t\t%s\n", "= "+timecalc.FormatDuration(r.Seconds))
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				dedup.Value("project", r.Project), r.Task, timecalc.FormatDuration(r.Seconds))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %s\n", timecalc.FormatDuration(sec.Total))
	return nil
}

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var exportHeader = []string{"date", "project", "task", "start", "end", "duration_minutes"}

// Export writes the entries of p as csv or json.
func (a *Actions) Export(p report.Period, format string) error {
	entries, err := storage.Collect(a.store.GetLogs(p.FirstDate(), p.LastDate()))
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		if entries == nil {
			entries = []model.Entry{}
		}
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatCSV, "":
		w := csv.NewWriter(a.out)
		if err := w.Write(exportHeader); err != nil {
			return err
		}
		for _, e := range entries {
			if err := w.Write(exportRow(e)); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}
	return fmt.Errorf("%w %q: want csv or json", ErrUnknownFormat, format)
}

func exportRow(e model.Entry) []string {
	end, minutes := "", ""
	if e.End != nil {
		end = e.End.Format(time.RFC3339)
	}
	if e.DurationSeconds != nil {
		minutes = strconv.FormatInt(*e.DurationSeconds/60, 10)
	}
	return []string{e.StartDate, e.Project, e.Task, e.Start.Format(time.RFC3339), end, minutes}
}
