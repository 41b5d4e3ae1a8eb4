package ruleset

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a full rule-table set from a YAML file.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a validated *Rules, or an error if the file fails to
// parse, contains unknown fields, or fails Validate.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset %q: %w", path, err)
	}
	var r Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing ruleset %q: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("ruleset %q: %w", path, err)
	}
	return &r, nil
}
