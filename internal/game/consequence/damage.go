package consequence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/roll"
)

// DamagePayload is passed to the damage hooks. Callbacks may adjust the raw
// damage or force mitigation off before the arithmetic runs.
type DamagePayload struct {
	Attack   *roll.Result
	Defender *character.Character

	Raw      *int
	IgnoreTB *bool
	IgnoreAP *bool
}

// DamageReport is the full accounting of one applied hit.
type DamageReport struct {
	Location string

	Raw    int
	TB     int
	AP     int
	Shield int
	// Net is what reached the wound pool, after the minimum-damage floor.
	Net int

	WoundsRemaining int
	// Overkill is how far below zero the hit would have gone.
	Overkill int

	// Critical marks a hit that calls for a critical wound: a double on the
	// attack or wounds driven to zero, unless impenetrable armour nullified
	// it.
	Critical bool
	// CritNullified marks a critical cancelled by impenetrable armour on an
	// odd roll.
	CritNullified bool
	// CritModifier is the offset to the critical table when Critical is set.
	CritModifier int

	// Saved marks damage voided by a protective trait; SaveTrait names it.
	Saved     bool
	SaveTrait string
	SaveRoll  int
}

// ApplyDamage mitigates and applies an attack's damage to the defender.
//
// Mitigation order: protective trait save, then toughness bonus and the
// armour layers at the struck location, then the minimum-damage floor.
// Wounds never go below zero; the shortfall is reported as Overkill.
//
// Precondition: attack must be a successful damaging result with a hit
// location; defender and defenderPrep must be non-nil.
// Postcondition: The defender's stored wounds reflect the report; the report
// is returned even when a save voids the damage.
func (p *Processor) ApplyDamage(ctx context.Context, attack *roll.Result, defender *character.Character, defenderPrep *character.Prepared) (*DamageReport, error) {
	if attack == nil || defender == nil || defenderPrep == nil {
		panic("consequence: ApplyDamage: precondition violated: attack, defender, and defenderPrep must be non-nil")
	}
	if !attack.Success || attack.HitLocation == "" {
		return nil, fmt.Errorf("consequence: result for %q is not an applicable hit", attack.Spec.Name)
	}

	raw := attack.Damage
	ignoreTB := false
	ignoreAP := false
	payload := &DamagePayload{
		Attack:   attack,
		Defender: defender,
		Raw:      &raw,
		IgnoreTB: &ignoreTB,
		IgnoreAP: &ignoreAP,
	}
	p.hooks.Run(hook.PreApplyDamage, payload)
	p.hooks.Run(hook.PreTakeDamage, payload)

	report := &DamageReport{Location: string(attack.HitLocation), Raw: raw}

	if p.trySave(defender, report) {
		report.WoundsRemaining = defender.Wounds.Value
		p.hooks.Run(hook.TakeDamage, payload)
		p.hooks.Run(hook.ApplyDamage, payload)
		return report, nil
	}

	weapon := attackWeapon(attack)
	if !ignoreTB {
		report.TB = defender.Characteristic("t").Bonus()
	}
	if !ignoreAP {
		report.AP, report.CritNullified = p.mitigateArmour(attack, weapon, defenderPrep)
		report.Shield = defenderPrep.Loadout.Shield
	}

	undamaging := weapon != nil && weapon.HasFlaw(item.FlawUndamaging)
	ap := report.AP
	if undamaging {
		ap *= 2
	}
	ap += report.Shield

	net := raw - report.TB - ap
	if undamaging {
		if net < 0 {
			net = 0
		}
	} else if net < 1 {
		net = 1
	}
	report.Net = net

	err := p.store.Update(ctx, defender.ID, func(c *character.Character) error {
		remaining := c.Wounds.Value - net
		zeroed := remaining <= 0
		if remaining < 0 {
			report.Overkill = -remaining
			remaining = 0
		}
		c.Wounds.Value = remaining
		report.WoundsRemaining = remaining
		if !report.CritNullified && (attack.Critical || zeroed) {
			report.Critical = true
			c.CriticalWounds.Value++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consequence: apply damage to %q: %w", defender.Name, err)
	}

	if report.Critical {
		report.CritModifier = p.critModifier(report)
		p.audio.Play(ctx, "critical")
	}

	p.hooks.Run(hook.TakeDamage, payload)
	p.hooks.Run(hook.ApplyDamage, payload)

	p.logger.Info("damage applied",
		zap.String("defender", defender.Name),
		zap.String("location", report.Location),
		zap.Int("raw", report.Raw),
		zap.Int("net", report.Net),
		zap.Int("wounds", report.WoundsRemaining),
	)
	return report, nil
}

// trySave rolls the defender's protective trait, Daemonic before Ward. A
// d10 at or over the trait's target voids the damage entirely.
func (p *Processor) trySave(defender *character.Character, report *DamageReport) bool {
	type save struct {
		name   string
		target int
	}
	var saves []save
	if target, ok := character.IsDaemonic(defender); ok && target > 0 {
		saves = append(saves, save{"Daemonic", target})
	}
	if target := character.WardTrait(defender); target > 0 {
		saves = append(saves, save{"Ward", target})
	}
	for _, s := range saves {
		rolled, err := p.roller.RollDie("1d10")
		if err != nil {
			p.logger.Warn("protective trait save failed to roll", zap.Error(err))
			continue
		}
		if rolled >= s.target {
			report.Saved = true
			report.SaveTrait = s.name
			report.SaveRoll = rolled
			return true
		}
	}
	return false
}

// mitigateArmour sums the armour points protecting the struck location.
// Partial coverage is skipped on even rolls and criticals; weakpoints are
// skipped on criticals with impaling weapons; penetrating weapons ignore one
// point of metal armour and all of anything else. Impenetrable armour that
// still applies nullifies criticals on odd rolls.
func (p *Processor) mitigateArmour(attack *roll.Result, weapon *item.Weapon, prep *character.Prepared) (ap int, critNullified bool) {
	slot, ok := prep.Loadout.AP[attack.HitLocation]
	if !ok {
		return 0, false
	}

	evenRoll := attack.Roll%2 == 0
	ignorePartial := evenRoll || attack.Critical
	impale := weapon != nil && weapon.HasQuality(item.QualityImpale)
	ignoreWeakpoints := attack.Critical && impale
	penetrating := weapon != nil && weapon.HasQuality(item.QualityPenetrating)

	for _, layer := range slot.Layers {
		if layer.Partial && ignorePartial {
			continue
		}
		if layer.Weakpoints && ignoreWeakpoints {
			continue
		}
		value := layer.Value
		if penetrating {
			if layer.Metal {
				value--
				if value < 0 {
					value = 0
				}
			} else {
				value = 0
			}
		}
		if value > 0 && layer.Impenetrable && attack.Critical && !evenRoll {
			critNullified = true
		}
		ap += value
	}
	return ap, critNullified
}

// critModifier computes the critical-table offset: overkill short of the
// toughness bonus reduces the table by a flat 20; past it, the dangerous
// crits house rule scales the offset up instead.
func (p *Processor) critModifier(report *DamageReport) int {
	if report.Overkill < report.TB {
		return -20
	}
	if !p.opts.DangerousCrits {
		return 0
	}
	return (report.Overkill - report.TB) * p.opts.DangerousCritsMod
}

func attackWeapon(attack *roll.Result) *item.Weapon {
	spec := attack.Spec
	if spec.WeaponID == "" {
		return nil
	}
	poss := spec.Actor.Possession(spec.WeaponID)
	if poss == nil || poss.Kind != item.KindWeapon {
		return nil
	}
	return poss.Weapon
}
