package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest carries ordering constraints and initial enablement declared in
// data rather than code. Controllers are referenced by name.
type Manifest struct {
	Constraints []Constraint `yaml:"constraints"`
	Disabled    []string     `yaml:"disabled"`
}

// Constraint orders Controller relative to other named controllers.
type Constraint struct {
	Controller string   `yaml:"controller"`
	Before     []string `yaml:"before"`
	After      []string `yaml:"after"`
}

// LoadManifest loads controllers.yaml. An empty path yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return &Manifest{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read controller manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse controller manifest: %w", err)
	}
	for i, c := range m.Constraints {
		if c.Controller == "" {
			return nil, fmt.Errorf("controller manifest: constraint %d has no controller", i)
		}
	}
	return &m, nil
}

// Count returns the number of declared edges.
func (m *Manifest) Count() int {
	n := 0
	for _, c := range m.Constraints {
		n += len(c.Before) + len(c.After)
	}
	return n
}
