package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/model"
	"github.com/Tiliavir/ti/internal/report"
)

var periodNames = []string{"today", "week", "month"}

// rangeFlags holds the --from/--to flags shared by period commands.
type rangeFlags struct {
	from, to string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "First day (YYYY-MM-DD); overrides the period name")
	cmd.Flags().StringVar(&r.to, "to", "", "Last day (YYYY-MM-DD); defaults to today")
}

// period resolves the named period, or the custom range when --from or --to
// is set. A lone --to covers that single day.
func (r *rangeFlags) period(args []string, now time.Time) (report.Period, error) {
	if r.from == "" && r.to == "" {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return report.ParsePeriod(name, now)
	}

	last := now
	if r.to != "" {
		d, err := parseDay(r.to, now)
		if err != nil {
			return report.Period{}, err
		}
		last = d
	}
	first := last
	if r.from != "" {
		d, err := parseDay(r.from, now)
		if err != nil {
			return report.Period{}, err
		}
		first = d
	}
	return report.Custom(first, last)
}

func parseDay(s string, now time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
