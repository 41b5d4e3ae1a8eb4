package character

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/condition"
	"github.com/oldworld-vtt/grimcore/internal/game/equipment"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// PreWoundCalcPayload is passed to PreWoundCalc hooks; callbacks may adjust
// the bonuses and multipliers before the wound formula runs.
type PreWoundCalcPayload struct {
	Size        ruleset.Size
	SB, TB, WPB int
	Multiplier *ruleset.WoundMultiplier
}

// WoundCalcPayload is passed to WoundCalc hooks; callbacks may adjust the
// computed total.
type WoundCalcPayload struct {
	Wounds *int
}

// Prepared is the derived snapshot of one character, rebuilt by Prepare and
// never persisted. It is immutable once returned.
type Prepared struct {
	Size    ruleset.Size
	SizeNum int

	WoundsMax int
	// CriticalWoundsMax is how many lasting criticals the body holds, the
	// toughness bonus.
	CriticalWoundsMax int
	AdvantageMax      int
	Advantage         int
	CorruptionMax     int

	Walk int
	Run  int

	// EncumbranceLimit is SB + TB; Over is carried weight past it, >= 0.
	EncumbranceLimit int
	EncumbranceOver  int

	Loadout    *equipment.Loadout
	Conditions *condition.Ledger

	// Mount is the prepared mount snapshot when the character is mounted.
	Mount *Prepared
}

// Preparer derives Prepared snapshots. It holds only read-only collaborators
// and is safe for concurrent use.
type Preparer struct {
	rules      *ruleset.Rules
	conditions *condition.Registry
	hooks      *hook.Registry
	opts       config.Options
	logger     *zap.Logger
}

// NewPreparer creates a Preparer.
//
// Precondition: rules, conditions, hooks, and logger must be non-nil.
func NewPreparer(rules *ruleset.Rules, conditions *condition.Registry, hooks *hook.Registry, opts config.Options, logger *zap.Logger) *Preparer {
	if rules == nil || conditions == nil || hooks == nil || logger == nil {
		panic("character: NewPreparer: precondition violated: collaborators must be non-nil")
	}
	return &Preparer{rules: rules, conditions: conditions, hooks: hooks, opts: opts, logger: logger}
}

// Prepare derives the snapshot for c. The mount, when given and ridden, is
// prepared first so movement can follow it. Prepare never mutates c; it is
// idempotent for a given character state.
//
// Precondition: c must be non-nil.
// Postcondition: Returns a fully populated Prepared or an error.
func (p *Preparer) Prepare(c *Character, mount *Character) (*Prepared, error) {
	if c == nil {
		panic("character: Prepare: precondition violated: c must be non-nil")
	}

	prep := &Prepared{
		Loadout:    equipment.Resolve(c.Possessions),
		Conditions: condition.NewLedger(p.conditions, c.Conditions),
	}

	prep.Size, prep.SizeNum = p.resolveSize(c)
	prep.CriticalWoundsMax = c.Characteristic("t").Bonus()

	if err := p.computeWounds(c, prep); err != nil {
		return nil, err
	}
	p.computeAdvantage(c, prep)
	p.computeCorruption(c, prep)
	p.computeMovement(c, prep)
	p.computeEncumbrance(c, prep)

	if c.Mounted && mount != nil {
		mp, err := p.Prepare(mount, nil)
		if err != nil {
			return nil, fmt.Errorf("character: prepare mount %q: %w", mount.Name, err)
		}
		prep.Mount = mp
		prep.Walk = mp.Walk
		prep.Run = mp.Run
	}
	return prep, nil
}

// resolveSize applies the size precedence: Size trait specification, then a
// Small talent, then average with a warning on an unparseable trait.
func (p *Preparer) resolveSize(c *Character) (ruleset.Size, int) {
	if t := c.TraitByName("Size"); t != nil && t.Trait != nil {
		if s, ok := ruleset.SizeFromName(t.Trait.Specification); ok {
			n, _ := ruleset.SizeNum(s)
			return s, n
		}
		p.logger.Warn("unparseable size trait, falling back to average",
			zap.String("character", c.Name),
			zap.String("specification", t.Trait.Specification),
		)
	}
	if c.TalentRanks("Small") > 0 {
		n, _ := ruleset.SizeNum(ruleset.SizeSmall)
		return ruleset.SizeSmall, n
	}
	n, _ := ruleset.SizeNum(ruleset.SizeAverage)
	return ruleset.SizeAverage, n
}

// computeWounds runs the wound formula with Hardy multipliers and the wound
// hooks. A disabled flag keeps the stored maximum.
func (p *Preparer) computeWounds(c *Character, prep *Prepared) error {
	if !c.Flags.AutoCalcWounds {
		prep.WoundsMax = c.Wounds.Max
		return nil
	}

	mult := ruleset.WoundMultiplier{}
	if ranks := c.TalentRanks("Hardy"); ranks > 0 {
		mult.TB += ranks
	}

	pre := &PreWoundCalcPayload{
		Size:       prep.Size,
		SB:         c.Characteristic("s").Bonus(),
		TB:         c.Characteristic("t").Bonus(),
		WPB:        c.Characteristic("wp").Bonus(),
		Multiplier: &mult,
	}
	p.hooks.Run(hook.PreWoundCalc, pre)

	wounds, err := ruleset.Wounds(pre.Size, pre.SB, pre.TB, pre.WPB, *pre.Multiplier)
	if err != nil {
		return err
	}
	p.hooks.Run(hook.WoundCalc, &WoundCalcPayload{Wounds: &wounds})

	if wounds < 0 {
		wounds = 0
	}
	prep.WoundsMax = wounds
	return nil
}

// computeAdvantage clamps stored advantage into [0, max].
func (p *Preparer) computeAdvantage(c *Character, prep *Prepared) {
	max := ruleset.AdvantageCeiling
	if p.opts.CapAdvantageIB {
		max = c.Characteristic("i").Bonus()
	}
	prep.AdvantageMax = max

	adv := c.Advantage
	if adv < 0 {
		adv = 0
	}
	if adv > max {
		adv = max
	}
	prep.Advantage = adv
}

func (p *Preparer) computeCorruption(c *Character, prep *Prepared) {
	if !c.Flags.AutoCalcCorruption {
		return
	}
	prep.CorruptionMax = c.Characteristic("t").Bonus() + c.Characteristic("wp").Bonus()
}

func (p *Preparer) computeMovement(c *Character, prep *Prepared) {
	if c.Flags.AutoCalcWalk {
		prep.Walk = 2 * c.Move
	}
	if c.Flags.AutoCalcRun {
		prep.Run = 4 * c.Move
	}
}

func (p *Preparer) computeEncumbrance(c *Character, prep *Prepared) {
	if !c.Flags.AutoCalcEncumbrance {
		return
	}
	prep.EncumbranceLimit = c.Characteristic("s").Bonus() + c.Characteristic("t").Bonus()
	over := prep.Loadout.Encumbrance - prep.EncumbranceLimit
	if over < 0 {
		over = 0
	}
	prep.EncumbranceOver = over
}

// HasTalent reports whether c owns at least one rank of the named talent.
// Kept here so callers work against the prepared view.
func HasTalent(c *Character, name string) bool {
	return c.TalentRanks(name) > 0
}

// SizeDelta returns how many categories bigger a is than b (negative when
// smaller).
func SizeDelta(a, b *Prepared) int {
	return a.SizeNum - b.SizeNum
}

// WardTrait returns the save target of a Ward trait, 0 when absent. The
// specification holds the d10 target.
func WardTrait(c *Character) int {
	t := c.TraitByName("Ward")
	if t == nil || t.Trait == nil {
		return 0
	}
	var target int
	if _, err := fmt.Sscanf(t.Trait.Specification, "%d", &target); err != nil {
		return 0
	}
	return target
}

// IsDaemonic reports whether c has the Daemonic trait and returns its save
// target.
func IsDaemonic(c *Character) (int, bool) {
	t := c.TraitByName("Daemonic")
	if t == nil || t.Trait == nil {
		return 0, false
	}
	var target int
	if _, err := fmt.Sscanf(t.Trait.Specification, "%d", &target); err != nil {
		return 0, true
	}
	return target, true
}
