package storage

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/ti/internal/model"
)

// document is the JSON store file and the editable form of every backend.
// InterruptStack is a legacy list kept only for format compatibility.
type document struct {
	Work           []model.Entry `json:"work" yaml:"work"`
	InterruptStack []any         `json:"interrupt_stack" yaml:"interrupt_stack"`
}

func (d *document) normalize() {
	if d.Work == nil {
		d.Work = []model.Entry{}
	}
	if d.InterruptStack == nil {
		d.InterruptStack = []any{}
	}
}

// toYAML renders doc as a block-style YAML with a blank line between entries.
func (d document) toYAML() ([]byte, error) {
	d.normalize()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return bytes.ReplaceAll(buf.Bytes(), []byte("\n  - "), []byte("\n\n  - ")), nil
}

// parseYAML reads an edited document back. Every entry must be valid and
// at most one may be open.
func parseYAML(data []byte) (document, error) {
	var d document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	d.normalize()
	if err := validateAll(d.Work); err != nil {
		return document{}, err
	}
	return d, nil
}

// validateAll checks each entry and the single-current invariant.
func validateAll(entries []model.Entry) error {
	open := 0
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: entry %d: %w", ErrParse, i+1, err)
		}
		if e.IsCurrent {
			open++
		}
	}
	if open > 1 {
		return fmt.Errorf("%w: %d entries are marked current", ErrParse, open)
	}
	return nil
}
