package roll

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/dice"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// Result is an immutable resolved test. Amendments (rerolls, fortune SL
// shifts) produce new Results chained through Previous.
type Result struct {
	Spec *Specification

	// Roll is the d100 value; Target the number it was rolled against.
	Roll   int
	Target int

	Success bool
	// SL is the signed degree of success by the tens rule plus bonuses.
	SL      int
	Outcome string

	// Critical and Fumble mark doubles on success and failure.
	Critical bool
	Fumble   bool

	// HitLocation is set when the specification asked for one.
	HitLocation ruleset.Location

	// Damage is the evaluated attack damage on a successful damaging test.
	Damage int

	// SpellCast marks a casting test that met its spell's casting number.
	// Overcasts counts each full two SL past it.
	SpellCast bool
	Overcasts int

	// Previous chains to the amended result; RevertsPrevious marks results
	// whose consequences replace the previous result's.
	Previous        *Result
	RevertsPrevious bool
}

// Resolver turns confirmed specifications and die rolls into Results.
type Resolver struct {
	rules  *ruleset.Rules
	opts   config.Options
	roller dice.Roller
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: rules, roller, and logger must be non-nil.
func NewResolver(rules *ruleset.Rules, opts config.Options, roller dice.Roller, logger *zap.Logger) *Resolver {
	if rules == nil || roller == nil || logger == nil {
		panic("roll: NewResolver: precondition violated: collaborators must be non-nil")
	}
	return &Resolver{rules: rules, opts: opts, roller: roller, logger: logger}
}

// Roll draws the percentile die for a test.
func (r *Resolver) Roll() int {
	return r.roller.RollPercentile()
}

// Resolve computes the outcome of spec for a rolled d100 value.
//
// Rolls of 1-5 always succeed and 96-100 always fail, whatever the target.
// SL is target tens minus roll tens, shifted by the specification's bonuses.
// Doubles are criticals on success and fumbles on failure.
//
// Precondition: rolled must be in [1, 100].
// Postcondition: Returns an immutable Result; spec is not modified.
func (r *Resolver) Resolve(spec *Specification, rolled int) (*Result, error) {
	if rolled < 1 || rolled > 100 {
		panic(fmt.Sprintf("roll: Resolve: precondition violated: rolled %d out of [1,100]", rolled))
	}

	target := spec.Target()
	success := rolled <= target
	switch {
	case rolled <= 5:
		success = true
	case rolled >= 96:
		success = false
	}

	sl := target/10 - rolled/10 + spec.TotalSLBonus()
	if success {
		sl += spec.TotalSuccessBonus()
	}

	res := &Result{
		Spec:    spec,
		Roll:    rolled,
		Target:  target,
		Success: success,
		SL:      sl,
		Outcome: describe(success, sl),
	}

	if isDouble(rolled) {
		if success {
			res.Critical = true
		} else {
			res.Fumble = true
		}
	}

	if spec.RollHitLocation {
		loc, err := r.rules.HitLocation(reverseRoll(rolled))
		if err != nil {
			return nil, err
		}
		res.HitLocation = loc
	}

	if success && spec.Category == CategoryCast {
		if spell := spellOf(spec); spell != nil && sl >= spell.CN {
			res.SpellCast = true
			res.Overcasts = (sl - spell.CN) / 2
		}
	}

	if success && spec.DamageFormula != "" {
		dmg, err := r.damage(spec, res)
		if err != nil {
			return nil, err
		}
		res.Damage = dmg
	}

	r.logger.Debug("test resolved",
		zap.String("name", spec.Name),
		zap.Int("roll", rolled),
		zap.Int("target", target),
		zap.Int("sl", sl),
		zap.Bool("success", success),
	)
	return res, nil
}

// Reroll spends a fortune point to resolve spec again with a fresh roll.
// The new result reverts the previous one: consequence processing undoes
// the old effects before applying the new.
//
// Precondition: prev must be non-nil.
// Postcondition: Returns ErrNoFortune without rolling when the actor's
// fortune pool is empty.
func (r *Resolver) Reroll(prev *Result, rolled int) (*Result, error) {
	if prev == nil {
		panic("roll: Reroll: precondition violated: prev must be non-nil")
	}
	if err := spendFortune(prev.Spec.Actor); err != nil {
		return nil, err
	}
	res, err := r.Resolve(prev.Spec, rolled)
	if err != nil {
		return nil, err
	}
	res.Previous = prev
	res.RevertsPrevious = true
	return res, nil
}

// AddSL spends a fortune point to amend a result by shifting its SL. Used
// for fortune and talent spends after the roll.
//
// Precondition: prev must be non-nil and delta non-zero.
// Postcondition: Returns ErrNoFortune when the actor's fortune pool is
// empty.
func (r *Resolver) AddSL(prev *Result, delta int) (*Result, error) {
	if prev == nil {
		panic("roll: AddSL: precondition violated: prev must be non-nil")
	}
	if delta == 0 {
		panic("roll: AddSL: precondition violated: delta must be non-zero")
	}
	if err := spendFortune(prev.Spec.Actor); err != nil {
		return nil, err
	}
	res := *prev
	res.SL += delta
	res.Outcome = describe(res.Success, res.SL)
	res.Previous = prev
	res.RevertsPrevious = true
	return &res, nil
}

// spendFortune debits one point from the actor's fortune pool.
func spendFortune(actor *character.Character) error {
	if actor.Fortune.Value <= 0 {
		return ErrNoFortune
	}
	actor.Fortune.Value--
	return nil
}

// damage evaluates the attack damage for a successful test: formula plus SL
// plus ammunition adjustment. A damaging-quality weapon may use the units
// die in place of a lower SL.
func (r *Resolver) damage(spec *Specification, res *Result) (int, error) {
	sb := spec.Actor.Characteristic("s").Bonus()
	base, err := item.EvaluateDamage(spec.DamageFormula, sb, r.roller)
	if err != nil {
		return 0, err
	}

	sl := res.SL
	if w := weaponOf(spec); w != nil && w.HasQuality(item.QualityDamaging) {
		if units := res.Roll % 10; units > sl {
			sl = units
		}
	}
	return base + sl + spec.AmmoDamageMod, nil
}

func spellOf(spec *Specification) *item.Spell {
	if spec.SpellID == "" {
		return nil
	}
	p := spec.Actor.Possession(spec.SpellID)
	if p == nil || p.Kind != item.KindSpell {
		return nil
	}
	return p.Spell
}

func weaponOf(spec *Specification) *item.Weapon {
	if spec.WeaponID == "" {
		return nil
	}
	p := spec.Actor.Possession(spec.WeaponID)
	if p == nil || p.Kind != item.KindWeapon {
		return nil
	}
	return p.Weapon
}

// isDouble reports matching tens and units digits; 100 counts as a double.
func isDouble(rolled int) bool {
	if rolled == 100 {
		return true
	}
	return rolled/10 == rolled%10
}

// reverseRoll swaps the digits of a d100 roll for the hit-location draw.
// 45 becomes 54, 30 becomes 3, and 100 maps to 100.
func reverseRoll(rolled int) int {
	v := (rolled%10)*10 + (rolled/10)%10
	if v == 0 {
		return 100
	}
	return v
}

// describe grades an outcome by its SL band.
func describe(success bool, sl int) string {
	switch {
	case success && sl >= 6:
		return "Astounding Success"
	case success && sl >= 4:
		return "Impressive Success"
	case success && sl >= 2:
		return "Success"
	case success:
		return "Marginal Success"
	case sl <= -6:
		return "Astounding Failure"
	case sl <= -4:
		return "Impressive Failure"
	case sl <= -2:
		return "Failure"
	default:
		return "Marginal Failure"
	}
}
