package log

import (
	"io"
	"log/slog"
)

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldPath      = "path"
	FieldBackend   = "backend"
	FieldCount     = "count"
	FieldError     = "error"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentConfig  = "config"
	ComponentActions = "actions"
)

// Operations defines standard operation names
const (
	OpOpen    = "open"
	OpAppend  = "append"
	OpFinish  = "finish"
	OpRewrite = "rewrite"
	OpEdit    = "edit"
	OpSchema  = "schema"
)

// Config holds logger configuration
type Config struct {
	Level  slog.Level
	Output io.Writer
}

// ConfigFor returns the CLI logging config: warnings only unless verbose.
func ConfigFor(w io.Writer, verbose bool) Config {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return Config{Level: level, Output: w}
}

// New creates a text logger writing to config.Output.
func New(config Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(config.Output, &slog.HandlerOptions{
		Level: config.Level,
	}))
}

// Setup installs a logger built from config as the slog default.
func Setup(config Config) *slog.Logger {
	logger := New(config)
	slog.SetDefault(logger)
	return logger
}

// Component returns a logger tagged with the given component name.
func Component(name string) *slog.Logger {
	return slog.Default().With(FieldComponent, name)
}
