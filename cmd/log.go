package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
)

var logRange rangeFlags

var logCmd = &cobra.Command{
	Use:       "log [today|week|month]",
	Aliases:   []string{"l"},
	Short:     "List the entries of a period",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: periodNames,
	RunE:      runLog,
}

func init() {
	logRange.register(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	p, err := logRange.period(args, time.Now())
	if err != nil {
		return err
	}
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Log(p)
	})
}
