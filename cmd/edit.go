package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
)

var editCmd = &cobra.Command{
	Use:     "edit",
	Aliases: []string{"e"},
	Short:   "Edit the whole store with $EDITOR",
	Args:    cobra.NoArgs,
	RunE:    runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	return withActions(cmd, func(a *actions.Actions) error {
		return a.Edit(cfg.ResolveEditor())
	})
}
