// Package ruleset holds the static rule tables the engine computes against:
// difficulty tiers, size categories, hit locations, status-tier earnings,
// wound formulas, and range bands. Tables are versioned with the ruleset,
// loadable from YAML, and read-only once constructed.
package ruleset

import (
	"fmt"
	"strings"
)

// Difficulty is a named test-difficulty tier.
type Difficulty string

const (
	VeryEasy    Difficulty = "veryeasy"
	Easy        Difficulty = "easy"
	Average     Difficulty = "average"
	Challenging Difficulty = "challenging"
	Difficult   Difficulty = "difficult"
	Hard        Difficulty = "hard"
	VeryHard    Difficulty = "veryhard"
)

// difficultyOrder lists tiers from easiest to hardest, used for stepping.
var difficultyOrder = []Difficulty{
	VeryEasy, Easy, Average, Challenging, Difficult, Hard, VeryHard,
}

// Size is a creature size category.
type Size string

const (
	SizeTiny      Size = "tiny"
	SizeLittle    Size = "little"
	SizeSmall     Size = "small"
	SizeAverage   Size = "average"
	SizeLarge     Size = "large"
	SizeEnormous  Size = "enormous"
	SizeMonstrous Size = "monstrous"
)

// sizeNums orders size categories numerically; larger is bigger.
var sizeNums = map[Size]int{
	SizeTiny:      0,
	SizeLittle:    1,
	SizeSmall:     2,
	SizeAverage:   3,
	SizeLarge:     4,
	SizeEnormous:  5,
	SizeMonstrous: 6,
}

// SizeNum returns the numeric order of a size category.
//
// Postcondition: Returns a value in [0, 6] and true, or 0 and false for an
// unknown size.
func SizeNum(s Size) (int, bool) {
	n, ok := sizeNums[s]
	return n, ok
}

// SizeFromName resolves a display name such as "Large" to a Size.
//
// Postcondition: Returns the Size and true, or "" and false if the name does
// not match any category.
func SizeFromName(name string) (Size, bool) {
	s := Size(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := sizeNums[s]; ok {
		return s, true
	}
	return "", false
}

// Location is a hit location on a creature's body.
type Location string

const (
	LocHead     Location = "head"
	LocBody     Location = "body"
	LocLeftArm  Location = "lArm"
	LocRightArm Location = "rArm"
	LocLeftLeg  Location = "lLeg"
	LocRightLeg Location = "rLeg"
)

// Locations returns every armourable body location.
func Locations() []Location {
	return []Location{LocHead, LocBody, LocLeftArm, LocRightArm, LocLeftLeg, LocRightLeg}
}

// HitRange maps a contiguous percentile span to a Location.
type HitRange struct {
	Min      int      `yaml:"min"`
	Max      int      `yaml:"max"`
	Location Location `yaml:"location"`
}

// StatusTier is a social status tier used by income tests.
type StatusTier string

const (
	TierBrass  StatusTier = "brass"
	TierSilver StatusTier = "silver"
	TierGold   StatusTier = "gold"
)

// CorruptionStrength grades a corruption exposure.
type CorruptionStrength string

const (
	CorruptionMinor    CorruptionStrength = "minor"
	CorruptionModerate CorruptionStrength = "moderate"
	CorruptionMajor    CorruptionStrength = "major"
)

// AdvantageCeiling is the fixed advantage maximum when the initiative-bonus
// cap rule is disabled.
const AdvantageCeiling = 10

// Rules is the full static rule-table set.
type Rules struct {
	// DifficultyModifiers maps each tier to its flat test modifier.
	DifficultyModifiers map[Difficulty]int `yaml:"difficulty_modifiers"`
	// HitLocations maps percentile spans to body locations.
	HitLocations []HitRange `yaml:"hit_locations"`
	// Earnings maps a status tier to the d10 count rolled per point of
	// standing. Gold standing pays flat, without a roll.
	Earnings map[StatusTier]int `yaml:"earnings"`
	// RangedTargetSize maps a target's size to the ranged-attack modifier.
	RangedTargetSize map[Size]int `yaml:"ranged_target_size"`
	// StealthArmourPenalty is applied once per noisy armour type worn
	// (mail, plate) on Stealth tests. Always non-positive.
	StealthArmourPenalty int `yaml:"stealth_armour_penalty"`
	// PracticalOffset is the per-piece offset practical armour grants
	// against StealthArmourPenalty.
	PracticalOffset int `yaml:"practical_offset"`
}

// DifficultyModifier returns the flat modifier for tier d.
//
// Postcondition: Returns the table value, or 0 for an unknown tier.
func (r *Rules) DifficultyModifier(d Difficulty) int {
	return r.DifficultyModifiers[d]
}

// AlterDifficulty steps d by the given number of tiers. Positive steps make
// the test easier, negative steps harder, clamped at the extremes.
func AlterDifficulty(d Difficulty, steps int) Difficulty {
	idx := 0
	for i, tier := range difficultyOrder {
		if tier == d {
			idx = i
			break
		}
	}
	idx -= steps
	if idx < 0 {
		idx = 0
	}
	if idx >= len(difficultyOrder) {
		idx = len(difficultyOrder) - 1
	}
	return difficultyOrder[idx]
}

// HitLocation resolves a percentile roll to a body location.
//
// Precondition: roll must be in [1, 100].
// Postcondition: Returns the matching Location, or an error if the table has
// a gap at roll.
func (r *Rules) HitLocation(roll int) (Location, error) {
	if roll < 1 || roll > 100 {
		return "", fmt.Errorf("ruleset: hit location roll %d out of [1,100]", roll)
	}
	for _, hr := range r.HitLocations {
		if roll >= hr.Min && roll <= hr.Max {
			return hr.Location, nil
		}
	}
	return "", fmt.Errorf("ruleset: no hit location covers roll %d", roll)
}

// Validate checks table completeness.
//
// Postcondition: Returns nil iff every difficulty tier and status tier has an
// entry and the hit-location table covers [1,100] without gaps.
func (r *Rules) Validate() error {
	var errs []string

	for _, d := range difficultyOrder {
		if _, ok := r.DifficultyModifiers[d]; !ok {
			errs = append(errs, fmt.Sprintf("difficulty_modifiers missing tier %q", d))
		}
	}
	for _, tier := range []StatusTier{TierBrass, TierSilver, TierGold} {
		if _, ok := r.Earnings[tier]; !ok {
			errs = append(errs, fmt.Sprintf("earnings missing tier %q", tier))
		}
	}
	covered := make([]bool, 101)
	for _, hr := range r.HitLocations {
		if hr.Min < 1 || hr.Max > 100 || hr.Min > hr.Max {
			errs = append(errs, fmt.Sprintf("hit_locations span [%d,%d] is invalid", hr.Min, hr.Max))
			continue
		}
		for i := hr.Min; i <= hr.Max; i++ {
			if covered[i] {
				errs = append(errs, fmt.Sprintf("hit_locations overlap at %d", i))
				break
			}
			covered[i] = true
		}
	}
	for i := 1; i <= 100; i++ {
		if !covered[i] {
			errs = append(errs, fmt.Sprintf("hit_locations gap at %d", i))
			break
		}
	}
	if r.StealthArmourPenalty > 0 {
		errs = append(errs, "stealth_armour_penalty must be <= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ruleset validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Default returns the compiled-in rule tables.
//
// Postcondition: Default().Validate() == nil.
func Default() *Rules {
	return &Rules{
		DifficultyModifiers: map[Difficulty]int{
			VeryEasy:    60,
			Easy:        40,
			Average:     20,
			Challenging: 0,
			Difficult:   -10,
			Hard:        -20,
			VeryHard:    -30,
		},
		HitLocations: []HitRange{
			{Min: 1, Max: 9, Location: LocHead},
			{Min: 10, Max: 24, Location: LocLeftArm},
			{Min: 25, Max: 44, Location: LocRightArm},
			{Min: 45, Max: 79, Location: LocBody},
			{Min: 80, Max: 89, Location: LocLeftLeg},
			{Min: 90, Max: 100, Location: LocRightLeg},
		},
		Earnings: map[StatusTier]int{
			TierBrass:  2,
			TierSilver: 1,
			TierGold:   1,
		},
		RangedTargetSize: map[Size]int{
			SizeTiny:      -30,
			SizeLittle:    -20,
			SizeSmall:     -10,
			SizeAverage:   0,
			SizeLarge:     20,
			SizeEnormous:  40,
			SizeMonstrous: 60,
		},
		StealthArmourPenalty: -10,
		PracticalOffset:      10,
	}
}
