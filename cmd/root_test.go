package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tiliavir/ti/internal/actions"
	"github.com/Tiliavir/ti/internal/storage"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{actions.ErrNotWorking, 1},
		{fmt.Errorf("%w: build", actions.ErrAlreadyTracking), 1},
		{storage.ErrConsistency, 2},
		{storage.ErrSchema, 2},
		{fmt.Errorf("boom"), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// run executes the root command with flag state reset between calls.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	storeFlag, verbose = "", false
	onAgo, finAgo, statusShort = "", "", false
	reportSplit, exportFormat = true, actions.FormatCSV
	logRange, reportRange, exportRange = rangeFlags{}, rangeFlags{}, rangeFlags{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsEndToEnd(t *testing.T) {
	for _, name := range []string{"sheet.csv", "sheet.json", "sheet.sqlite"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("TI_SHEET", "")
			t.Setenv("TI-SHEET", "")
			store := filepath.Join(t.TempDir(), name)

			out, err := run(t, "status", "--short", "--store", store)
			if err != nil || out != "idle\n" {
				t.Fatalf("status --short = %q, %v", out, err)
			}

			if _, err := run(t, "fin", "--store", store); exitCode(err) != 1 {
				t.Fatalf("fin while idle: err = %v", err)
			}

			if _, err := run(t, "on", "build", "proj-x", "--ago", "2m", "--store", store); err != nil {
				t.Fatalf("on: %v", err)
			}
			if _, err := run(t, "o", "review", "--store", store); exitCode(err) != 1 {
				t.Fatalf("second on: err = %v", err)
			}

			out, err = run(t, "s", "--short", "--store", store)
			if err != nil || !strings.HasPrefix(out, "on proj-x/build for 2m") {
				t.Fatalf("status --short = %q, %v", out, err)
			}

			if _, err := run(t, "f", "--store", store); err != nil {
				t.Fatalf("fin: %v", err)
			}

			out, err = run(t, "report", "--store", store)
			if err != nil {
				t.Fatalf("report: %v", err)
			}
			if !strings.Contains(out, "proj-x") || !strings.Contains(out, "Total: 2m") {
				t.Errorf("report output:\n%s", out)
			}

			// Weeks are split by day unless --split=false.
			out, err = run(t, "report", "week", "--store", store)
			if err != nil || !strings.Contains(out, "Monday ") || strings.Contains(out, "Sunday ") {
				t.Errorf("report week = %v\n%s", err, out)
			}
			out, err = run(t, "report", "week", "--split=false", "--store", store)
			if err != nil || strings.Contains(out, "Monday ") {
				t.Errorf("report week --split=false = %v\n%s", err, out)
			}
		})
	}
}

func TestOnRejectsBadAgo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	store := filepath.Join(t.TempDir(), "sheet.csv")
	if _, err := run(t, "on", "build", "--ago", "yesterday", "--store", store); exitCode(err) != 2 || err == nil {
		t.Errorf("err = %v, want a usage failure", err)
	}
}
