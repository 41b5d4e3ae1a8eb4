// Package condition defines status conditions and the per-character ledger
// that tracks them. Numbered conditions stack; binary conditions are either
// present or absent. Removing certain conditions leaves fatigue behind.
package condition

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Def describes one condition type.
type Def struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Numbered conditions carry a stacking rating; binary ones do not.
	Numbered bool `yaml:"numbered"`
	// Cap bounds a numbered condition's rating; 0 means uncapped.
	Cap int `yaml:"cap,omitempty"`
	// TestModifier is applied per rating point (or once, for binary
	// conditions) to every test the sufferer attempts.
	TestModifier int `yaml:"test_modifier,omitempty"`
}

// Validate checks the Def invariants.
//
// Postcondition: Returns nil iff the definition is well-formed.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition definition missing id")
	}
	if d.Name == "" {
		return fmt.Errorf("condition %q missing name", d.ID)
	}
	if d.Cap < 0 {
		return fmt.Errorf("condition %q cap must be >= 0", d.ID)
	}
	if d.Cap > 0 && !d.Numbered {
		return fmt.Errorf("condition %q cap requires numbered", d.ID)
	}
	return nil
}

// Registry holds condition definitions by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, replacing any prior definition with the
// same ID.
//
// Precondition: def must be non-nil and valid.
func (r *Registry) Register(def *Def) {
	if def == nil {
		panic("condition: Register: precondition violated: def must be non-nil")
	}
	if err := def.Validate(); err != nil {
		panic(fmt.Sprintf("condition: Register: precondition violated: %v", err))
	}
	r.defs[def.ID] = def
}

// Get returns the definition for id, or nil if unknown.
func (r *Registry) Get(id string) *Def {
	return r.defs[id]
}

// All returns every registered definition, sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type defsFile struct {
	Conditions []*Def `yaml:"conditions"`
}

// Load reads condition definitions from a YAML file into a new Registry.
// Unknown fields are rejected.
//
// Postcondition: Returns a Registry with every definition validated, or an
// error.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("condition: open %s: %w", path, err)
	}
	defer f.Close()
	return load(f)
}

func load(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file defsFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("condition: decode definitions: %w", err)
	}
	reg := NewRegistry()
	for _, d := range file.Conditions {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("condition: %w", err)
		}
		reg.defs[d.ID] = d
	}
	return reg, nil
}

// Defaults returns a Registry preloaded with the standard condition set.
func Defaults() *Registry {
	reg := NewRegistry()
	for _, d := range []*Def{
		{ID: "ablaze", Name: "Ablaze", Numbered: true},
		{ID: "bleeding", Name: "Bleeding", Numbered: true},
		{ID: "blinded", Name: "Blinded", Numbered: true, TestModifier: -10},
		{ID: "broken", Name: "Broken", Numbered: true},
		{ID: "deafened", Name: "Deafened", Numbered: true, TestModifier: -10},
		{ID: "entangled", Name: "Entangled", Numbered: true, TestModifier: -10},
		{ID: "fatigued", Name: "Fatigued", Numbered: true, TestModifier: -10},
		{ID: "poisoned", Name: "Poisoned", Numbered: true, TestModifier: -10},
		{ID: "prone", Name: "Prone", TestModifier: -20},
		{ID: "stunned", Name: "Stunned", Numbered: true, TestModifier: -10},
		{ID: "surprised", Name: "Surprised"},
		{ID: "unconscious", Name: "Unconscious"},
	} {
		reg.defs[d.ID] = d
	}
	return reg
}
