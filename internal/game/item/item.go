// Package item defines possessions: everything a character can own, from
// skills and talents to weapons, armour, and extended-test trackers. Raw
// possession fields are authoritative; anything derived from them is
// recomputed by the preparation pass and never persisted.
package item

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// Kind discriminates the possession union.
type Kind string

const (
	KindSkill        Kind = "skill"
	KindTalent       Kind = "talent"
	KindTrait        Kind = "trait"
	KindWeapon       Kind = "weapon"
	KindArmour       Kind = "armour"
	KindAmmunition   Kind = "ammunition"
	KindSpell        Kind = "spell"
	KindPrayer       Kind = "prayer"
	KindCareer       Kind = "career"
	KindDisease      Kind = "disease"
	KindInjury       Kind = "injury"
	KindTrapping     Kind = "trapping"
	KindContainer    Kind = "container"
	KindExtendedTest Kind = "extendedTest"
)

// Possession is one owned item. Exactly one kind-specific field is non-nil,
// matching Kind.
type Possession struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`

	// Quantity is the owned count; doubles as ammo supply for throwing
	// weapons that consume themselves.
	Quantity int `yaml:"quantity"`
	// Encumbrance is the carry weight of one unit.
	Encumbrance float64 `yaml:"encumbrance"`
	// Equipped marks worn armour and readied weapons.
	Equipped bool `yaml:"equipped"`
	// ContainerID nests this possession inside a container possession.
	ContainerID string `yaml:"container_id,omitempty"`
	// CountEnc forces a contained item to still count toward carried
	// encumbrance.
	CountEnc bool `yaml:"count_enc,omitempty"`

	Skill      *Skill        `yaml:"skill,omitempty"`
	Talent     *Talent       `yaml:"talent,omitempty"`
	Trait      *Trait        `yaml:"trait,omitempty"`
	Weapon     *Weapon       `yaml:"weapon,omitempty"`
	Armour     *Armour       `yaml:"armour,omitempty"`
	Ammunition *Ammunition   `yaml:"ammunition,omitempty"`
	Spell      *Spell        `yaml:"spell,omitempty"`
	Prayer     *Prayer       `yaml:"prayer,omitempty"`
	Career     *Career       `yaml:"career,omitempty"`
	Disease    *Disease      `yaml:"disease,omitempty"`
	Injury     *Injury       `yaml:"injury,omitempty"`
	Container  *Container    `yaml:"container,omitempty"`
	Extended   *ExtendedTest `yaml:"extended,omitempty"`
}

// Skill is a learned ability tested against a characteristic.
type Skill struct {
	// Characteristic is the abbreviation of the linked characteristic,
	// e.g. "ag" for Agility.
	Characteristic string `yaml:"characteristic"`
	Advances       int    `yaml:"advances"`
	// Advanced skills cannot be attempted untrained.
	Advanced bool `yaml:"advanced"`
}

// Talent is a purchasable knack; Ranks counts how many times it was taken.
type Talent struct {
	Ranks int `yaml:"ranks"`
	// Tests names the test the talent's SL bonus applies to, if any.
	Tests string `yaml:"tests,omitempty"`
}

// Trait is an innate creature ability.
type Trait struct {
	// Specification qualifies the trait, e.g. the size name on a Size
	// trait or the save target on a Ward trait.
	Specification string `yaml:"specification,omitempty"`
	// Rollable traits can be tested directly.
	Rollable bool `yaml:"rollable"`
	// RollCharacteristic is the abbreviation tested when Rollable.
	RollCharacteristic string `yaml:"roll_characteristic,omitempty"`
	// DefaultDifficulty overrides the prefilled difficulty when set.
	DefaultDifficulty ruleset.Difficulty `yaml:"default_difficulty,omitempty"`
	// Damage is the damage formula for attack traits, e.g. "sb+4".
	Damage string `yaml:"damage,omitempty"`
	// AttackType is "melee" or "ranged" for attack traits.
	AttackType AttackType `yaml:"attack_type,omitempty"`
}

// Spell is a castable magic effect.
type Spell struct {
	Lore string `yaml:"lore"`
	// CN is the casting number channelled SLs accumulate against.
	CN     int    `yaml:"cn"`
	Damage string `yaml:"damage,omitempty"`
	// TestSkill names the skill used to cast; empty falls back to the
	// Willpower characteristic.
	TestSkill string `yaml:"test_skill,omitempty"`
}

// Prayer is an invoked divine effect, tested on Fellowship by default.
type Prayer struct {
	Damage string `yaml:"damage,omitempty"`
	// TestSkill names the skill used to invoke; empty falls back to the
	// Fellowship characteristic.
	TestSkill string `yaml:"test_skill,omitempty"`
}

// Career records social position; the current career drives income tests.
type Career struct {
	Tier     ruleset.StatusTier `yaml:"tier"`
	Standing int                `yaml:"standing"`
	Current  bool               `yaml:"current"`
	// Characteristics lists the abbreviations advanceable in this career.
	Characteristics []string `yaml:"characteristics,omitempty"`
}

// Disease is a contracted affliction; symptoms apply only once active.
type Disease struct {
	Incubation string `yaml:"incubation,omitempty"`
	Duration   string `yaml:"duration,omitempty"`
	Active     bool   `yaml:"active"`
}

// Injury is a lingering wound at a location.
type Injury struct {
	Location ruleset.Location `yaml:"location"`
	Penalty  string           `yaml:"penalty,omitempty"`
}

// Ammunition feeds ranged weapons that share its group.
type Ammunition struct {
	Group string `yaml:"group"`
	// DamageMod adjusts the weapon's damage while this ammo is loaded.
	DamageMod int `yaml:"damage_mod,omitempty"`
}

// Container holds other possessions; contents do not count toward carried
// encumbrance unless individually flagged.
type Container struct {
	Capacity int `yaml:"capacity"`
}

// New creates a possession of the given kind with a fresh ID and quantity 1.
//
// Precondition: name must be non-empty.
func New(kind Kind, name string) *Possession {
	if name == "" {
		panic("item: New: precondition violated: name must be non-empty")
	}
	return &Possession{ID: uuid.NewString(), Name: name, Kind: kind, Quantity: 1}
}

// Validate reports an error if the possession's Kind and populated data
// field disagree, or required fields are missing.
//
// Postcondition: Returns nil iff the possession is well-formed.
func (p *Possession) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.Quantity < 0 {
		errs = append(errs, errors.New("quantity must be >= 0"))
	}

	populated := map[Kind]bool{
		KindSkill:        p.Skill != nil,
		KindTalent:       p.Talent != nil,
		KindTrait:        p.Trait != nil,
		KindWeapon:       p.Weapon != nil,
		KindArmour:       p.Armour != nil,
		KindAmmunition:   p.Ammunition != nil,
		KindSpell:        p.Spell != nil,
		KindPrayer:       p.Prayer != nil,
		KindCareer:       p.Career != nil,
		KindDisease:      p.Disease != nil,
		KindInjury:       p.Injury != nil,
		KindContainer:    p.Container != nil,
		KindExtendedTest: p.Extended != nil,
	}
	if _, known := populated[p.Kind]; !known && p.Kind != KindTrapping {
		errs = append(errs, fmt.Errorf("unknown kind %q", p.Kind))
	}
	for kind, present := range populated {
		if kind == p.Kind && !present {
			errs = append(errs, fmt.Errorf("kind %q requires its data field", kind))
		}
		if kind != p.Kind && present {
			errs = append(errs, fmt.Errorf("kind %q must not carry %q data", p.Kind, kind))
		}
	}

	if p.Kind == KindWeapon && p.Weapon != nil {
		if err := p.Weapon.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Kind == KindArmour && p.Armour != nil {
		if err := p.Armour.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Kind == KindExtendedTest && p.Extended != nil {
		if err := p.Extended.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("possession %q validation failed: %v", p.Name, errs)
	}
	return nil
}
