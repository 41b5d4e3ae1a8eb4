package item

import (
	"errors"
	"fmt"
)

// CompletionPolicy is what an extended-test tracker does on reaching its
// target.
type CompletionPolicy string

const (
	// CompletionNone leaves the tracker at or above its target.
	CompletionNone CompletionPolicy = "none"
	// CompletionReset zeroes the tracker's progress.
	CompletionReset CompletionPolicy = "reset"
	// CompletionRemove deletes the tracker possession.
	CompletionRemove CompletionPolicy = "remove"
)

// ExtendedTest tracks cumulative degrees of success toward a target.
//
// Invariant: Current >= 0 unless NegativePossible.
type ExtendedTest struct {
	Target  int `yaml:"target"`
	Current int `yaml:"current"`
	// FailingDecreases applies negative SL to progress.
	FailingDecreases bool `yaml:"failing_decreases"`
	// NegativePossible lets progress go below zero.
	NegativePossible bool `yaml:"negative_possible"`
	Completion       CompletionPolicy `yaml:"completion"`
	// TestSkill names the skill rolled against this tracker.
	TestSkill string `yaml:"test_skill,omitempty"`
	// ReloadWeaponID links a reload tracker back to its weapon; completing
	// the tracker marks that weapon loaded.
	ReloadWeaponID string `yaml:"reload_weapon_id,omitempty"`
}

// Advance accumulates sl into the tracker and applies the completion policy
// if the target is reached.
//
// Negative sl is ignored unless FailingDecreases; progress is floored at 0
// unless NegativePossible.
//
// Postcondition: Returns true iff the target was reached by this call; on
// CompletionReset the progress is back at 0.
func (e *ExtendedTest) Advance(sl int) bool {
	if e.FailingDecreases {
		e.Current += sl
		if !e.NegativePossible && e.Current < 0 {
			e.Current = 0
		}
	} else if sl > 0 {
		e.Current += sl
	}

	if e.Current < e.Target {
		return false
	}
	if e.Completion == CompletionReset {
		e.Current = 0
	}
	return true
}

// Validate checks the tracker invariants.
//
// Postcondition: Returns nil iff Target > 0 and Completion is known.
func (e *ExtendedTest) Validate() error {
	var errs []error
	if e.Target <= 0 {
		errs = append(errs, errors.New("target must be > 0"))
	}
	switch e.Completion {
	case CompletionNone, CompletionReset, CompletionRemove:
	default:
		errs = append(errs, fmt.Errorf("completion %q must be none, reset, or remove", e.Completion))
	}
	if len(errs) > 0 {
		return fmt.Errorf("extended test validation failed: %v", errs)
	}
	return nil
}
