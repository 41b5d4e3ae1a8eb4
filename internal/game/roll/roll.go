// Package roll builds and resolves percentile tests: a Builder prefills a
// Specification from character state and situation, and a Resolver turns a
// confirmed Specification plus a die roll into an immutable Result.
package roll

import (
	"errors"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/modifier"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

var (
	// ErrNotRollable is returned when a trait without a rollable form is
	// tested.
	ErrNotRollable = errors.New("roll: trait is not rollable")
	// ErrNoFortune is returned when an amendment is requested with an empty
	// fortune pool.
	ErrNoFortune = errors.New("roll: no fortune points remain")
)

// Category is the kind of test being built.
type Category string

const (
	CategoryCharacteristic Category = "characteristic"
	CategorySkill          Category = "skill"
	CategoryWeapon         Category = "weapon"
	CategoryTrait          Category = "trait"
	CategoryCast           Category = "cast"
	CategoryChannelling    Category = "channelling"
	CategoryPrayer         Category = "prayer"
	CategoryIncome         Category = "income"
	CategoryCorruption     Category = "corruption"
	CategoryMutation       Category = "mutation"
)

// Absolute overrides replace prefilled values outright; they are applied
// after every other contribution.
type Absolute struct {
	Difficulty   *ruleset.Difficulty
	Modifier     *int
	SLBonus      *int
	SuccessBonus *int
}

// Context carries the situation a test is built in. The zero value is a
// plain untargeted test.
type Context struct {
	// Target and TargetPrepared describe the selected opponent, if any.
	Target         *character.Character
	TargetPrepared *character.Prepared

	// Distance is the measured distance to the target in yards; 0 means
	// unmeasured.
	Distance int

	// InCombat marks a structured conflict, which changes the default
	// difficulty.
	InCombat bool

	// AttackerTest is the attacker's resolved test when this test defends
	// against it.
	AttackerTest *Result

	// Dodge marks a Dodge test, which is penalised while mounted.
	Dodge bool
	// Rest marks a downtime recovery test.
	Rest bool

	// ExtendedTestID links the test to an extended-test tracker possession.
	ExtendedTestID string

	// CorruptionStrength is set for corruption tests.
	CorruptionStrength ruleset.CorruptionStrength
	// Mutation marks the over-threshold corruption follow-up test.
	Mutation bool

	// Modify is a caller-supplied flat modifier.
	Modify int

	// Absolute overrides win over every prefilled value.
	Absolute Absolute
}

// Specification is a fully built test, ready for confirmation and rolling.
type Specification struct {
	Actor    *character.Character
	Prepared *character.Prepared
	Category Category

	// Name describes what is tested, e.g. "Dodge" or "Sword".
	Name string

	// SkillID, WeaponID, TraitID, SpellID, and PrayerID link back to the
	// possessions involved, when any.
	SkillID  string
	WeaponID string
	TraitID  string
	SpellID  string
	PrayerID string

	// BaseTarget is characteristic value plus skill advances, before
	// difficulty and modifiers.
	BaseTarget int

	Difficulty ruleset.Difficulty
	Modifiers  modifier.Accumulator

	// SLBonus and SuccessBonus adjust the computed SL; SuccessBonus applies
	// only on success.
	SLBonus      int
	SuccessBonus int

	// RollHitLocation marks tests whose roll also determines a hit location.
	RollHitLocation bool

	// DamageFormula is evaluated on a successful attack; empty for
	// non-damaging tests.
	DamageFormula string
	// AmmoDamageMod adjusts evaluated damage for the loaded ammunition.
	AmmoDamageMod int

	Context Context

	rules *ruleset.Rules
}

// Target returns the final roll-under target: base plus difficulty modifier
// plus accumulated modifiers. Absolute overrides replace the accumulated
// part outright.
func (s *Specification) Target() int {
	mod := s.Modifiers.Modifier()
	if s.Context.Absolute.Modifier != nil {
		mod = *s.Context.Absolute.Modifier
	}
	return s.BaseTarget + s.rules.DifficultyModifier(s.Difficulty) + mod
}

// TotalSLBonus is the SL adjustment applied regardless of outcome.
func (s *Specification) TotalSLBonus() int {
	if s.Context.Absolute.SLBonus != nil {
		return *s.Context.Absolute.SLBonus
	}
	return s.SLBonus + s.Modifiers.SLBonus()
}

// TotalSuccessBonus is the SL adjustment applied only on success.
func (s *Specification) TotalSuccessBonus() int {
	if s.Context.Absolute.SuccessBonus != nil {
		return *s.Context.Absolute.SuccessBonus
	}
	return s.SuccessBonus + s.Modifiers.SuccessBonus()
}

// Audit returns the reasons behind every accumulated modifier, in
// application order.
func (s *Specification) Audit() []string {
	return s.Modifiers.Audit()
}
