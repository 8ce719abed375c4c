package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
)

var statusShort bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"s"},
	Short:   "Show the running task",
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusShort, "short", false, `One line; prints "idle" when nothing runs`)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Status(statusShort)
	})
}
