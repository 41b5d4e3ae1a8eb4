package item

import (
	"errors"
	"fmt"

	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// ArmourType is the construction of an armour piece; mail and plate carry
// skill penalties when worn.
type ArmourType string

const (
	ArmourSoftLeather   ArmourType = "softLeather"
	ArmourBoiledLeather ArmourType = "boiledLeather"
	ArmourMail          ArmourType = "mail"
	ArmourPlate         ArmourType = "plate"
	ArmourOther         ArmourType = "other"
)

// Armour holds the raw protection fields of an armour possession. One piece
// protects one or more locations; the preparation pass stacks equipped
// pieces into per-location layers.
type Armour struct {
	// Locations lists the body locations this piece protects.
	Locations []ruleset.Location `yaml:"locations"`
	// AP is the armour points the piece contributes per location.
	AP   int        `yaml:"ap"`
	Type ArmourType `yaml:"type"`

	// Partial coverage is bypassed on even attack rolls and criticals.
	Partial bool `yaml:"partial,omitempty"`
	// Weakpoints coverage is bypassed by criticals with impaling weapons.
	Weakpoints bool `yaml:"weakpoints,omitempty"`
	// Impenetrable armour nullifies criticals on odd attack rolls.
	Impenetrable bool `yaml:"impenetrable,omitempty"`
	// Metal construction interacts with the penetrating quality.
	Metal bool `yaml:"metal,omitempty"`
	// Practical construction offsets armour skill penalties.
	Practical bool `yaml:"practical,omitempty"`

	// Damage is accumulated damage-to-item per location.
	Damage map[ruleset.Location]int `yaml:"damage,omitempty"`
}

// APAt returns the effective armour points at loc, net of damage-to-item.
//
// Postcondition: Returns >= 0; 0 when the piece does not cover loc.
func (a *Armour) APAt(loc ruleset.Location) int {
	covered := false
	for _, l := range a.Locations {
		if l == loc {
			covered = true
			break
		}
	}
	if !covered {
		return 0
	}
	ap := a.AP - a.Damage[loc]
	if ap < 0 {
		ap = 0
	}
	return ap
}

// IsNoisy reports whether the armour type carries a skill penalty when worn.
func (a *Armour) IsNoisy() bool {
	return a.Type == ArmourMail || a.Type == ArmourPlate
}

// Validate checks that the Armour satisfies its invariants.
//
// Postcondition: Returns nil iff all fields are valid.
func (a *Armour) Validate() error {
	var errs []error
	if len(a.Locations) == 0 {
		errs = append(errs, errors.New("locations must not be empty"))
	}
	if a.AP < 0 {
		errs = append(errs, errors.New("ap must be >= 0"))
	}
	valid := map[ruleset.Location]bool{}
	for _, l := range ruleset.Locations() {
		valid[l] = true
	}
	for _, l := range a.Locations {
		if !valid[l] {
			errs = append(errs, fmt.Errorf("location %q is not a valid body location", l))
		}
	}
	for loc, dmg := range a.Damage {
		if dmg < 0 {
			errs = append(errs, fmt.Errorf("damage at %q must be >= 0", loc))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("armour validation failed: %v", errs)
	}
	return nil
}
