package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadOptions reads options from a YAML (.yaml, .yml) or JSON (.json) file.
// Environment variables referenced as ${VAR} or $VAR are expanded before
// parsing so API keys can stay out of the file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return nil, fmt.Errorf("kernel: load options: %w", err)
	}

	return ParseOptions(path, []byte(os.ExpandEnv(string(data))))
}

// LoadOptionsRaw is LoadOptions without environment expansion, for tools
// that edit and write the file back.
func LoadOptionsRaw(path string) (*Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return nil, fmt.Errorf("kernel: load options: %w", err)
	}

	return ParseOptions(path, data)
}

// ParseOptions decodes data in the format implied by name's extension.
// Names without a known extension are parsed as YAML, which also accepts
// JSON.
func ParseOptions(name string, data []byte) (*Options, error) {
	var opts Options

	if isJSON(name) {
		if err := json.Unmarshal(data, &opts); err != nil {
			return nil, fmt.Errorf("kernel: parse options: %w", err)
		}
		return &opts, nil
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("kernel: parse options: %w", err)
	}

	return &opts, nil
}

// SaveOptions writes opts to path, choosing the format from the extension.
// Hooks are never written.
func SaveOptions(path string, opts *Options) error {
	var (
		data []byte
		err  error
	)

	if isJSON(path) {
		data, err = json.MarshalIndent(opts, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(opts)
	}
	if err != nil {
		return fmt.Errorf("kernel: encode options: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("kernel: save options: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("kernel: save options: %w", err)
	}

	return nil
}

func isJSON(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
