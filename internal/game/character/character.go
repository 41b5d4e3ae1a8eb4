// Package character defines the persistent character model and the
// preparation pass that derives a combat-ready snapshot from it. Raw fields
// (characteristic advances, possessions, conditions) are authoritative;
// everything derived is recomputed on every preparation and never persisted.
package character

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// Abbreviations lists the ten characteristics in sheet order.
func Abbreviations() []string {
	return []string{"ws", "bs", "s", "t", "i", "ag", "dex", "int", "wp", "fel"}
}

// Characteristic is one of the ten tested scores.
type Characteristic struct {
	Initial  int `yaml:"initial"`
	Advances int `yaml:"advances"`
	// Modifier holds temporary adjustments from effects.
	Modifier int `yaml:"modifier,omitempty"`
}

// Value returns the effective characteristic score, floored at 0.
func (c Characteristic) Value() int {
	v := c.Initial + c.Advances + c.Modifier
	if v < 0 {
		v = 0
	}
	return v
}

// Bonus returns the tens digit of the effective score.
func (c Characteristic) Bonus() int {
	return c.Value() / 10
}

// Pool is a spendable track with a refill ceiling.
type Pool struct {
	Value int `yaml:"value"`
	Max   int `yaml:"max"`
}

// Flags are the per-character auto-calculation toggles. A disabled flag
// means the corresponding field is maintained by hand and the preparation
// pass leaves it alone.
type Flags struct {
	AutoCalcWounds      bool `yaml:"auto_calc_wounds"`
	AutoCalcWalk        bool `yaml:"auto_calc_walk"`
	AutoCalcRun         bool `yaml:"auto_calc_run"`
	AutoCalcEncumbrance bool `yaml:"auto_calc_encumbrance"`
	AutoCalcCorruption  bool `yaml:"auto_calc_corruption"`
	AutoCalcSize        bool `yaml:"auto_calc_size"`
}

// DefaultFlags enables every auto-calculation.
func DefaultFlags() Flags {
	return Flags{
		AutoCalcWounds:      true,
		AutoCalcWalk:        true,
		AutoCalcRun:         true,
		AutoCalcEncumbrance: true,
		AutoCalcCorruption:  true,
		AutoCalcSize:        true,
	}
}

// XPEntry is one line of the experience log.
type XPEntry struct {
	Amount int       `yaml:"amount"`
	Reason string    `yaml:"reason"`
	When   time.Time `yaml:"when"`
}

// XP tracks experience totals with an append-only award log.
type XP struct {
	Total int       `yaml:"total"`
	Spent int       `yaml:"spent"`
	Log   []XPEntry `yaml:"log,omitempty"`
}

// Award adds amount to the total and appends a log entry.
//
// Precondition: reason must be non-empty.
func (x *XP) Award(amount int, reason string) {
	if reason == "" {
		panic("character: Award: precondition violated: reason must be non-empty")
	}
	x.Total += amount
	x.Log = append(x.Log, XPEntry{Amount: amount, Reason: reason, When: time.Now().UTC()})
}

// Available returns unspent experience.
func (x *XP) Available() int {
	return x.Total - x.Spent
}

// Character is the persistent actor model. Mutations go through the engine;
// derived state lives in Prepared.
type Character struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Species string `yaml:"species,omitempty"`

	Characteristics map[string]*Characteristic `yaml:"characteristics"`

	// Move is the base movement rate walk and run derive from.
	Move int `yaml:"move"`

	Wounds Pool `yaml:"wounds"`
	// CriticalWounds counts lasting criticals taken; its maximum is the
	// toughness bonus.
	CriticalWounds Pool `yaml:"critical_wounds"`
	Fate           Pool `yaml:"fate"`
	// Fortune refreshes to Fate and is spent on rerolls and SL shifts.
	Fortune    Pool `yaml:"fortune"`
	Resilience Pool `yaml:"resilience"`

	Advantage  int `yaml:"advantage"`
	Corruption int `yaml:"corruption"`
	Sin        int `yaml:"sin"`

	// Conditions maps condition ID to rating.
	Conditions map[string]int `yaml:"conditions,omitempty"`

	Possessions []*item.Possession `yaml:"possessions,omitempty"`

	Flags Flags `yaml:"flags"`
	XP    XP    `yaml:"xp"`

	// MountID links to the mount character; Mounted toggles riding.
	MountID string `yaml:"mount_id,omitempty"`
	Mounted bool   `yaml:"mounted,omitempty"`
}

// New creates a character with zeroed characteristics, default flags, and
// the starter possession set.
//
// Precondition: name must be non-empty.
func New(name string) *Character {
	if name == "" {
		panic("character: New: precondition violated: name must be non-empty")
	}
	chars := make(map[string]*Characteristic, 10)
	for _, ab := range Abbreviations() {
		chars[ab] = &Characteristic{}
	}
	return &Character{
		ID:              uuid.NewString(),
		Name:            name,
		Characteristics: chars,
		Move:            4,
		Flags:           DefaultFlags(),
		Possessions:     item.StarterPossessions(),
		Conditions:      make(map[string]int),
	}
}

// Characteristic returns the characteristic for an abbreviation, or a zero
// value for an unknown one.
func (c *Character) Characteristic(abbrev string) Characteristic {
	if ch, ok := c.Characteristics[strings.ToLower(abbrev)]; ok && ch != nil {
		return *ch
	}
	return Characteristic{}
}

// Possession returns the possession with the given ID, or nil.
func (c *Character) Possession(id string) *item.Possession {
	for _, p := range c.Possessions {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SkillByName finds a skill possession by name, case-insensitive.
func (c *Character) SkillByName(name string) *item.Possession {
	for _, p := range c.Possessions {
		if p.Kind == item.KindSkill && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// TalentRanks sums the ranks of every talent with the given name.
func (c *Character) TalentRanks(name string) int {
	total := 0
	for _, p := range c.Possessions {
		if p.Kind == item.KindTalent && strings.EqualFold(p.Name, name) && p.Talent != nil {
			ranks := p.Talent.Ranks
			if ranks <= 0 {
				ranks = 1
			}
			total += ranks
		}
	}
	return total
}

// TraitByName finds a trait possession by name, case-insensitive.
func (c *Character) TraitByName(name string) *item.Possession {
	for _, p := range c.Possessions {
		if p.Kind == item.KindTrait && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// CurrentCareer returns the career possession marked current, or nil.
func (c *Character) CurrentCareer() *item.Possession {
	for _, p := range c.Possessions {
		if p.Kind == item.KindCareer && p.Career != nil && p.Career.Current {
			return p
		}
	}
	return nil
}

// Status returns the current career's status tier and standing, defaulting
// to brass 0 without a career.
func (c *Character) Status() (ruleset.StatusTier, int) {
	career := c.CurrentCareer()
	if career == nil {
		return ruleset.TierBrass, 0
	}
	return career.Career.Tier, career.Career.Standing
}

// SkillTarget returns the test target for a skill possession: linked
// characteristic value plus advances.
func (c *Character) SkillTarget(skill *item.Possession) int {
	if skill == nil || skill.Skill == nil {
		return 0
	}
	return c.Characteristic(skill.Skill.Characteristic).Value() + skill.Skill.Advances
}
