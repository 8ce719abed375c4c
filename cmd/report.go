package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
)

var (
	reportRange rangeFlags
	reportSplit bool
)

var reportCmd = &cobra.Command{
	Use:       "report [today|week|month]",
	Aliases:   []string{"r"},
	Short:     "Show time totals per project and task",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: periodNames,
	RunE:      runReport,
}

func init() {
	reportRange.register(reportCmd)
	reportCmd.Flags().BoolVar(&reportSplit, "split", true, "Report each day separately before the whole period")
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := reportRange.period(args, time.Now())
	if err != nil {
		return err
	}
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Report(p, reportSplit)
	})
}
