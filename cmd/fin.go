package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
	"github.com/Tiliavir/ti/internal/timecalc"
)

var finAgo string

var finCmd = &cobra.Command{
	Use:     "fin",
	Aliases: []string{"f"},
	Short:   "Finish the running task",
	Args:    cobra.NoArgs,
	RunE:    runFin,
}

func init() {
	finCmd.Flags().StringVar(&finAgo, "ago", "", `Finish this long ago, e.g. "10m"`)
}

func runFin(cmd *cobra.Command, args []string) error {
	ago, err := timecalc.ParseAgo(finAgo)
	if err != nil {
		return err
	}
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Fin(ago)
	})
}
