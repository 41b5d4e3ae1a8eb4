package item

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oldworld-vtt/grimcore/internal/game/dice"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// AttackType distinguishes melee from ranged attacks.
type AttackType string

const (
	AttackMelee  AttackType = "melee"
	AttackRanged AttackType = "ranged"
)

// Quality is a beneficial weapon property.
type Quality string

const (
	QualityAccurate    Quality = "accurate"
	QualityDamaging    Quality = "damaging"
	QualityDefensive   Quality = "defensive"
	QualityFast        Quality = "fast"
	QualityHack        Quality = "hack"
	QualityImpale      Quality = "impale"
	QualityPenetrating Quality = "penetrating"
	QualityPrecise     Quality = "precise"
	QualityPummel      Quality = "pummel"
	QualityShield      Quality = "shield"
	QualityWrap        Quality = "wrap"
)

// Flaw is a detrimental weapon property.
type Flaw string

const (
	FlawDangerous  Flaw = "dangerous"
	FlawImprecise  Flaw = "imprecise"
	FlawReload     Flaw = "reload"
	FlawSlow       Flaw = "slow"
	FlawTiring     Flaw = "tiring"
	FlawUndamaging Flaw = "undamaging"
)

// Weapon holds the raw combat fields of a weapon possession. Rated
// properties (shield, reload) carry their rating in the map value;
// unrated properties store 0.
type Weapon struct {
	// Damage is the damage formula, e.g. "sb+4", "4", or "1d10+3".
	Damage     string     `yaml:"damage"`
	AttackType AttackType `yaml:"attack_type"`
	// Group is the weapon group, e.g. "basic", "parry", "bow".
	Group     string `yaml:"group"`
	TwoHanded bool   `yaml:"two_handed"`
	// Offhand marks the weapon as held in the off hand.
	Offhand bool `yaml:"offhand"`
	Reach   string `yaml:"reach,omitempty"`
	// Range is the listed range in yards; 0 for melee.
	Range int `yaml:"range,omitempty"`

	Qualities map[Quality]int `yaml:"qualities,omitempty"`
	Flaws     map[Flaw]int    `yaml:"flaws,omitempty"`

	// ConsumesAmmo marks weapons that expend ammunition (or themselves,
	// when AmmoGroup is empty, e.g. throwing weapons).
	ConsumesAmmo bool `yaml:"consumes_ammo"`
	// AmmoGroup is the ammunition group this weapon feeds from.
	AmmoGroup string `yaml:"ammo_group,omitempty"`
	// CurrentAmmoID selects the loaded ammunition possession.
	CurrentAmmoID string `yaml:"current_ammo_id,omitempty"`

	// Loading marks weapons that need an explicit reload between shots.
	Loading bool `yaml:"loading"`
	// Loaded is the current loaded state of a Loading weapon.
	Loaded bool `yaml:"loaded"`

	// ShieldDamage is accumulated damage-to-item reducing the shield
	// rating.
	ShieldDamage int `yaml:"shield_damage,omitempty"`
}

// HasQuality reports whether the weapon has quality q.
func (w *Weapon) HasQuality(q Quality) bool {
	_, ok := w.Qualities[q]
	return ok
}

// HasFlaw reports whether the weapon has flaw f.
func (w *Weapon) HasFlaw(f Flaw) bool {
	_, ok := w.Flaws[f]
	return ok
}

// ShieldValue returns the effective shield rating, net of damage-to-item.
//
// Postcondition: Returns >= 0; 0 when the weapon lacks the shield quality.
func (w *Weapon) ShieldValue() int {
	v, ok := w.Qualities[QualityShield]
	if !ok {
		return 0
	}
	v -= w.ShieldDamage
	if v < 0 {
		v = 0
	}
	return v
}

// ReloadTarget returns the SL target of the weapon's reload flaw, defaulting
// to 1 when the rating is missing or non-positive.
func (w *Weapon) ReloadTarget() int {
	v := w.Flaws[FlawReload]
	if v <= 0 {
		return 1
	}
	return v
}

// RangeBands returns the discrete range bands for the weapon's listed range.
//
// Precondition: the weapon must be ranged with Range > 0.
func (w *Weapon) RangeBands() ([]ruleset.RangeBand, error) {
	if w.AttackType != AttackRanged || w.Range <= 0 {
		return nil, fmt.Errorf("item: weapon has no range bands (type %q, range %d)", w.AttackType, w.Range)
	}
	return ruleset.DefaultRangeBands(w.Range), nil
}

// Validate checks that the Weapon satisfies its invariants.
//
// Postcondition: Returns nil iff all fields are valid.
func (w *Weapon) Validate() error {
	var errs []error
	if w.Damage == "" {
		errs = append(errs, errors.New("damage must not be empty"))
	}
	if w.AttackType != AttackMelee && w.AttackType != AttackRanged {
		errs = append(errs, fmt.Errorf("attack_type %q must be melee or ranged", w.AttackType))
	}
	if w.AttackType == AttackRanged && w.Range <= 0 {
		errs = append(errs, errors.New("ranged weapon range must be > 0"))
	}
	if w.ShieldDamage < 0 {
		errs = append(errs, errors.New("shield_damage must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// EvaluateDamage computes a damage formula against the wielder's strength
// bonus. Terms are joined by + or -: "sb" resolves to sb, integer terms are
// flat, and dice terms ("1d10") are rolled through roller.
//
// Precondition: formula must be non-empty; roller is required only when the
// formula contains dice terms.
// Postcondition: Returns the evaluated total or a parse error.
func EvaluateDamage(formula string, sb int, roller dice.Roller) (int, error) {
	s := strings.ToLower(strings.ReplaceAll(formula, " ", ""))
	if s == "" {
		return 0, errors.New("item: empty damage formula")
	}

	total := 0
	sign := 1
	for len(s) > 0 {
		cut := len(s)
		for i := 1; i < len(s); i++ {
			if s[i] == '+' || s[i] == '-' {
				cut = i
				break
			}
		}
		term := s[:cut]

		switch {
		case term == "sb":
			total += sign * sb
		case strings.Contains(term, "d"):
			if roller == nil {
				return 0, fmt.Errorf("item: damage formula %q needs a roller for term %q", formula, term)
			}
			v, err := roller.RollDie(term)
			if err != nil {
				return 0, fmt.Errorf("item: damage formula %q: %w", formula, err)
			}
			total += sign * v
		default:
			v, err := strconv.Atoi(term)
			if err != nil {
				return 0, fmt.Errorf("item: damage formula %q has invalid term %q", formula, term)
			}
			total += sign * v
		}

		if cut == len(s) {
			break
		}
		if s[cut] == '-' {
			sign = -1
		} else {
			sign = 1
		}
		s = s[cut+1:]
	}
	return total, nil
}
