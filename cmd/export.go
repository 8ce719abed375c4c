package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
)

var (
	exportRange  rangeFlags
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:       "export [today|week|month]",
	Short:     "Export the entries of a period to stdout",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: periodNames,
	RunE:      runExport,
}

func init() {
	exportRange.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", actions.FormatCSV, "Output format: csv, json")
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := exportRange.period(args, time.Now())
	if err != nil {
		return err
	}
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Export(p, exportFormat)
	})
}
