package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ti/internal/actions"
	"github.com/Tiliavir/ti/internal/config"
	applog "github.com/Tiliavir/ti/internal/log"
	"github.com/Tiliavir/ti/internal/storage"
)

var (
	storeFlag string
	verbose   bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ti",
	Short: "ti – a minimal command-line time tracker",
	Long: `ti tracks what you are working on in a single local file.
The store is a CSV, JSON or SQLite file chosen by its extension
(--store, $TI_SHEET or store_path in ~/.ti/config.json).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 when the tracking state forbids the command and 2 for every
// other failure.
func exitCode(err error) int {
	if errors.Is(err, actions.ErrNotWorking) || errors.Is(err, actions.ErrAlreadyTracking) {
		return 1
	}
	return 2
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store file (.csv, .txt, .json or .sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(finCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(exportCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	applog.Setup(applog.ConfigFor(cmd.ErrOrStderr(), verbose))
	_ = godotenv.Load()

	c, err := config.LoadDefault()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// withActions opens the configured store, runs fn and closes the store.
func withActions(cmd *cobra.Command, fn func(a *actions.Actions) error) error {
	path := cfg.ResolveStorePath(storeFlag)
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	applog.Component(applog.ComponentApp).Debug("store opened",
		applog.FieldPath, path, applog.FieldBackend, storage.Kind(path))

	runErr := fn(actions.New(store, cmd.OutOrStdout()))
	if err := store.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
