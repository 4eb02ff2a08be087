package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// BodyEntry is one scene body: a planet, star, ship or asteroid belt.
type BodyEntry struct {
	Name     string     `yaml:"name"`
	Model    string     `yaml:"model"`
	Position Vec3       `yaml:"position"`
	Scale    float64    `yaml:"scale"`
	SpinRate float64    `yaml:"spin_rate"` // radians per second
	Lifetime float64    `yaml:"lifetime"`  // seconds until removal, 0 = forever
	Orbit    *OrbitSpec `yaml:"orbit"`
}

// OrbitSpec moves a body on a circle around Center in the XZ plane.
type OrbitSpec struct {
	Center Vec3    `yaml:"center"`
	Radius float64 `yaml:"radius"`
	Period float64 `yaml:"period"` // seconds per revolution
}

// SceneTable holds the bodies of the scene in file order.
type SceneTable struct {
	bodies []BodyEntry
}

// LoadSceneTable loads scene_list.yaml.
func LoadSceneTable(path string) (*SceneTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene list: %w", err)
	}
	var entries []BodyEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse scene list: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("scene list: body %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("scene list: duplicate body %q", e.Name)
		}
		seen[e.Name] = true
		if e.Scale == 0 {
			e.Scale = 1
		}
		if e.Lifetime < 0 {
			return nil, fmt.Errorf("scene list: body %q lifetime must not be negative", e.Name)
		}
		if e.Orbit != nil && e.Orbit.Period <= 0 {
			return nil, fmt.Errorf("scene list: body %q orbit period must be positive", e.Name)
		}
	}
	return &SceneTable{bodies: entries}, nil
}

func (t *SceneTable) Bodies() []BodyEntry { return t.bodies }

// Count returns the total number of bodies loaded.
func (t *SceneTable) Count() int { return len(t.bodies) }
