package report

import (
	"iter"
	"sort"

	"github.com/Tiliavir/ti/internal/model"
)

// Source provides aggregated logs for an inclusive date range.
type Source interface {
	GetAggregatedLogs(from, to string) iter.Seq2[model.AggregatedLog, error]
}

// RowKind distinguishes task rows from project subtotal rows.
type RowKind int

const (
	TaskRow RowKind = iota
	SubtotalRow
)

// Row is one line of a report table.
type Row struct {
	Kind    RowKind
	Project string
	Task    string
	Seconds int64
}

// Section is the report of one period.
type Section struct {
	Period Period
	Rows   []Row
	Total  int64
}

// Build computes the report for p. With split set, one section per day of
// SplitDays precedes the section for the whole period.
func Build(src Source, p Period, split bool) ([]Section, error) {
	var periods []Period
	if split {
		periods = append(periods, p.SplitDays()...)
	}
	periods = append(periods, p)

	sections := make([]Section, 0, len(periods))
	for _, period := range periods {
		sec, err := section(src, period)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func section(src Source, p Period) (Section, error) {
	var logs []model.AggregatedLog
	for l, err := range src.GetAggregatedLogs(p.FirstDate(), p.LastDate()) {
		if err != nil {
			return Section{}, err
		}
		logs = append(logs, l)
	}
	rows, total := Tabulate(logs)
	return Section{Period: p, Rows: rows, Total: total}, nil
}

// Tabulate sorts logs by project and task and interleaves project subtotal
// rows: each subtotal precedes the first row of the next project, and the
// last one closes the table.
func Tabulate(logs []model.AggregatedLog) ([]Row, int64) {
	sorted := make([]model.AggregatedLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Project != sorted[j].Project {
			return sorted[i].Project < sorted[j].Project
		}
		return sorted[i].Task < sorted[j].Task
	})

	var (
		rows  []Row
		total int64
		sub   Subtotals
	)
	for _, l := range sorted {
		total += l.TotalSeconds
		if sum, ok := sub.Add(l.Project, l.TotalSeconds); ok {
			rows = append(rows, Row{Kind: SubtotalRow, Seconds: sum})
		}
		rows = append(rows, Row{Kind: TaskRow, Project: l.Project, Task: l.Task, Seconds: l.TotalSeconds})
	}
	if sum, ok := sub.Flush(); ok {
		rows = append(rows, Row{Kind: SubtotalRow, Seconds: sum})
	}
	return rows, total
}
