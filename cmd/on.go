package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
	"github.com/Tiliavir/ti/internal/timecalc"
)

var onAgo string

var onCmd = &cobra.Command{
	Use:     "on [task] [project]",
	Aliases: []string{"o"},
	Short:   "Start tracking a task",
	Long: `Start tracking a task. Without a task the name of the current
directory is used.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runOn,
}

func init() {
	onCmd.Flags().StringVar(&onAgo, "ago", "", `Start this long ago, e.g. "10m" or "1 hour 5 min"`)
}

func runOn(cmd *cobra.Command, args []string) error {
	ago, err := timecalc.ParseAgo(onAgo)
	if err != nil {
		return err
	}

	var task, project string
	switch len(args) {
	case 2:
		task, project = args[0], args[1]
	case 1:
		task = args[0]
	default:
		task = defaultTask()
	}

	return withActions(cmd, func(a *actions.Actions) error {
		return a.On(task, project, ago)
	})
}

func defaultTask() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
