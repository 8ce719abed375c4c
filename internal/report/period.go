package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/timecalc"
)

var (
	ErrUnknownPeriod = errors.New("unknown period")
	ErrEmptyPeriod   = errors.New("period ends before it starts")
)

// Period is a half-open range of calendar days [From, To). Both bounds are
// at midnight.
type Period struct {
	From time.Time
	To   time.Time
}

// Today is the single day containing now.
func Today(now time.Time) Period {
	from := timecalc.StartOfDay(now)
	return Period{From: from, To: timecalc.NextDay(from)}
}

// Week is the ISO week (Monday to Sunday) containing now.
func Week(now time.Time) Period {
	from := timecalc.WeekStart(now)
	return Period{From: from, To: from.AddDate(0, 0, 7)}
}

// Month is the calendar month containing now.
func Month(now time.Time) Period {
	from := timecalc.MonthStart(now)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// Custom spans the days from first to last, both included.
func Custom(first, last time.Time) (Period, error) {
	p := Period{From: timecalc.StartOfDay(first), To: timecalc.NextDay(last)}
	if !p.From.Before(p.To) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrEmptyPeriod,
			first.Format(model.DateLayout), last.Format(model.DateLayout))
	}
	return p, nil
}

// ParsePeriod resolves "today", "week" or "month" relative to now.
func ParsePeriod(name string, now time.Time) (Period, error) {
	switch name {
	case "", "today":
		return Today(now), nil
	case "week":
		return Week(now), nil
	case "month":
		return Month(now), nil
	}
	return Period{}, fmt.Errorf("%w %q: want today, week or month", ErrUnknownPeriod, name)
}

// FirstDate is the inclusive lower store query bound.
func (p Period) FirstDate() string {
	return p.From.Format(model.DateLayout)
}

// LastDate is the inclusive upper store query bound, the day before To.
func (p Period) LastDate() string {
	return p.To.AddDate(0, 0, -1).Format(model.DateLayout)
}

// Contains reports whether date (YYYY-MM-DD) lies in the period.
func (p Period) Contains(date string) bool {
	return p.FirstDate() <= date && date <= p.LastDate()
}

// Days splits the period into single days in ascending order.
func (p Period) Days() []Period {
	var days []Period
	for d := p.From; d.Before(p.To); d = timecalc.NextDay(d) {
		days = append(days, Period{From: d, To: timecalc.NextDay(d)})
	}
	return days
}

// SplitDays returns the days from From up to, but not including, the last
// day of the period. A single-day period has none.
func (p Period) SplitDays() []Period {
	days := p.Days()
	if len(days) == 0 {
		return nil
	}
	return days[:len(days)-1]
}

// IsSingleDay reports whether the period covers exactly one day.
func (p Period) IsSingleDay() bool {
	return timecalc.NextDay(p.From).Equal(p.To)
}

// Label names the period: the weekday of a single day, the ISO week of a
// Monday-to-Sunday week, or "Period" otherwise.
func (p Period) Label() string {
	w := Week(p.From)
	switch {
	case p.IsSingleDay():
		return p.From.Format("Monday")
	case p.From.Equal(w.From) && p.To.Equal(w.To):
		return "Week " + timecalc.ISOWeekLabel(p.From)
	}
	return "Period"
}

func (p Period) String() string {
	if p.IsSingleDay() {
		return p.FirstDate()
	}
	return p.FirstDate() + " – " + p.LastDate()
}
