package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	applog "github.com/Tiliavir/ti/internal/log"
)

// Config is the root configuration for ti, stored in ~/.ti/config.json.
// The file is JSON with comments and trailing commas allowed.
type Config struct {
	// StorePath is the store file. Its extension selects the backend.
	StorePath string `json:"store_path"`
	// Editor is the command used by "ti edit" when $EDITOR is unset.
	Editor string `json:"editor"`
}

// Environment variables consulted when resolving settings.
const (
	EnvSheet       = "TI_SHEET"
	EnvSheetLegacy = "TI-SHEET"
	EnvEditor      = "EDITOR"
)

// configTemplate is the annotated config written on first run.
const configTemplate = `// ti configuration – ~/.ti/config.json
//
// All settings are optional. Environment variables take precedence:
// TI_SHEET overrides store_path and EDITOR overrides editor.
{
  // Store file. The extension selects the backend:
  // • .csv or .txt – one row per entry (default)
  // • .json        – a single document
  // • .sqlite      – an SQLite database
  // Leave empty to use ~/.ti-sheet.csv.
  "store_path": "",

  // Command used by "ti edit", e.g. "vim" or "code --wait".
  "editor": "",
}
`

// FilePath returns the path to ~/.ti/config.json.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ti", "config.json"), nil
}

// LoadDefault loads the config from FilePath.
func LoadDefault() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Config{}, err
	}
	return Load(path)
}

// Load reads the config at path, creating it with the annotated template on
// first run.
func Load(path string) (Config, error) {
	logger := applog.Component(applog.ComponentConfig)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if writeErr := writeDefault(path); writeErr != nil {
			logger.Warn("could not create config file", applog.FieldPath, path, applog.FieldError, writeErr)
		}
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	logger.Debug("config loaded", applog.FieldPath, path)
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated
// template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// ResolveStorePath resolves the store file: flag, then TI_SHEET (or the legacy
// TI-SHEET), then the config file. Empty means the store default.
func (c Config) ResolveStorePath(flag string) string {
	for _, p := range []string{flag, os.Getenv(EnvSheet), os.Getenv(EnvSheetLegacy), c.StorePath} {
		if p != "" {
			return expandHome(p)
		}
	}
	return ""
}

// ResolveEditor returns $EDITOR, falling back to the config file.
func (c Config) ResolveEditor() string {
	if e := os.Getenv(EnvEditor); e != "" {
		return e
	}
	return c.Editor
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
