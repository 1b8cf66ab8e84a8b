// Package settings holds per-site root selector overrides read from a YAML
// file. An override pins the element the modern activation probe resolves for
// every tab on that host.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override pins the root selector used for one host.
type Override struct {
	Host     string `yaml:"host" json:"host" doc:"Host the override applies to, with an optional port"`
	Selector string `yaml:"selector" json:"selector" doc:"CSS selector of the application root element"`
}

// File is the top-level YAML document.
type File struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadFile reads and validates a selector overrides file. A missing file is an
// empty set of overrides.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selectors config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("selectors config: %w", err)
	}
	if err := Validate(f.Overrides); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate rejects empty fields and duplicate hosts. Hosts compare
// case-insensitively.
func Validate(overrides []Override) error {
	seen := make(map[string]int, len(overrides))
	for i, o := range overrides {
		if strings.TrimSpace(o.Host) == "" {
			return fmt.Errorf("selectors config: override[%d] missing host", i)
		}
		if strings.TrimSpace(o.Selector) == "" {
			return fmt.Errorf("selectors config: override[%d] (%s) missing selector", i, o.Host)
		}
		key := normalizeHost(o.Host)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("selectors config: override[%d] (%s) duplicates override[%d]", i, o.Host, prev)
		}
		seen[key] = i
	}
	return nil
}

// SaveFile writes f atomically by renaming a temp file over path.
func SaveFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("selectors config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("selectors config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".selectors-*.yaml")
	if err != nil {
		return fmt.Errorf("selectors config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("selectors config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("selectors config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("selectors config: %w", err)
	}
	return nil
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
