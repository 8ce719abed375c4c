package storage

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runEditor runs the editor command on path and waits for it to exit.
// The command may carry arguments, e.g. "code --wait".
func runEditor(command, path string) error {
	args := strings.Fields(command)
	if len(args) == 0 {
		return ErrNoEditor
	}

	cmd := exec.CommandContext(context.Background(), args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %q: %w", command, err)
	}
	return nil
}

// editScratch writes content to a private scratch file, lets the user edit
// it and returns the edited bytes. The scratch file is always removed.
func editScratch(command, pattern string, content []byte) ([]byte, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing scratch file: %w", err)
	}

	if err := runEditor(command, path); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scratch file: %w", err)
	}
	return edited, nil
}
