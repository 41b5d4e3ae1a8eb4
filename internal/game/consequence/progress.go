package consequence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/roll"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// ExtendedReport describes one extended-test advance.
type ExtendedReport struct {
	Current   int
	Target    int
	Completed bool
	// Removed marks a tracker deleted by its completion policy.
	Removed bool
	// WeaponLoaded marks a reload tracker that armed its weapon.
	WeaponLoaded bool
}

// ExtendedProgress feeds a result's SL into the tracker named by its
// context. With the SL-zero house rule, a zero-SL result counts as +1 on
// success and -1 on failure.
//
// Precondition: res must carry an extended-test ID in its context.
func (p *Processor) ExtendedProgress(ctx context.Context, res *roll.Result) (*ExtendedReport, error) {
	trackerID := res.Spec.Context.ExtendedTestID
	if trackerID == "" {
		panic("consequence: ExtendedProgress: precondition violated: result has no extended-test ID")
	}

	sl := res.SL
	if p.opts.ExtendedSL0 && sl == 0 {
		if res.Success {
			sl = 1
		} else {
			sl = -1
		}
	}

	report := &ExtendedReport{}
	err := p.store.Update(ctx, res.Spec.Actor.ID, func(c *character.Character) error {
		tracker := c.Possession(trackerID)
		if tracker == nil || tracker.Kind != item.KindExtendedTest {
			return fmt.Errorf("possession %q is not an extended test", trackerID)
		}
		ext := tracker.Extended
		report.Completed = ext.Advance(sl)
		report.Current = ext.Current
		report.Target = ext.Target
		if !report.Completed {
			return nil
		}

		if ext.ReloadWeaponID != "" {
			if weapon := c.Possession(ext.ReloadWeaponID); weapon != nil && weapon.Weapon != nil {
				weapon.Weapon.Loaded = true
				report.WeaponLoaded = true
			}
			removePossession(c, trackerID)
			report.Removed = true
			return nil
		}
		if ext.Completion == item.CompletionRemove {
			removePossession(c, trackerID)
			report.Removed = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consequence: extended progress: %w", err)
	}
	return report, nil
}

// IncomeReport describes a downtime earnings payout.
type IncomeReport struct {
	// Denomination is the coin name credited.
	Denomination string
	Amount       int
	// Halved marks a near-miss paid at half rate.
	Halved bool
}

// Income pays out a resolved income test from the actor's current career.
// Brass and silver standings roll d10s per point of standing; gold pays its
// standing flat. Success earns the full amount, a failure within five SL of
// passing earns half, and anything worse earns nothing.
func (p *Processor) Income(ctx context.Context, res *roll.Result) (*IncomeReport, error) {
	career := res.Spec.Actor.CurrentCareer()
	if career == nil {
		return nil, fmt.Errorf("consequence: %q has no current career", res.Spec.Actor.Name)
	}
	tier := career.Career.Tier
	standing := career.Career.Standing
	if standing < 1 {
		standing = 1
	}

	amount := 0
	if tier == ruleset.TierGold {
		amount = standing
	} else {
		diceCount := p.rules.Earnings[tier] * standing
		for i := 0; i < diceCount; i++ {
			v, err := p.roller.RollDie("1d10")
			if err != nil {
				return nil, fmt.Errorf("consequence: income roll: %w", err)
			}
			amount += v
		}
	}

	report := &IncomeReport{Denomination: denominationFor(tier)}
	switch {
	case res.Success:
		report.Amount = amount
	case res.SL > -6:
		report.Amount = amount / 2
		report.Halved = true
	default:
		report.Amount = 0
	}

	if report.Amount > 0 {
		err := p.store.Update(ctx, res.Spec.Actor.ID, func(c *character.Character) error {
			for _, poss := range c.Possessions {
				if poss.Kind == item.KindTrapping && poss.Name == report.Denomination {
					poss.Quantity += report.Amount
					return nil
				}
			}
			coin := item.New(item.KindTrapping, report.Denomination)
			coin.Quantity = report.Amount
			c.Possessions = append(c.Possessions, coin)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("consequence: credit income: %w", err)
		}
	}

	p.logger.Info("income test paid out",
		zap.String("actor", res.Spec.Actor.Name),
		zap.String("denomination", report.Denomination),
		zap.Int("amount", report.Amount),
	)
	return report, nil
}

func denominationFor(tier ruleset.StatusTier) string {
	switch tier {
	case ruleset.TierGold:
		return "Gold Crown"
	case ruleset.TierSilver:
		return "Silver Shilling"
	default:
		return "Brass Penny"
	}
}

// CorruptionReport describes a corruption exposure outcome.
type CorruptionReport struct {
	// Delta is the net corruption change, negative when a reroll undoes a
	// worse previous result.
	Delta int
	Total int
	// NeedsMutationTest marks corruption past the threshold.
	NeedsMutationTest bool
}

// Corruption applies a resolved corruption test. The gain depends on the
// exposure strength and how well the test went; a rerolled test first
// subtracts the previous result's gain. Corruption past the character's
// threshold calls for a mutation test.
func (p *Processor) Corruption(ctx context.Context, res *roll.Result, prep *character.Prepared) (*CorruptionReport, error) {
	strength := res.Spec.Context.CorruptionStrength
	if strength == "" {
		panic("consequence: Corruption: precondition violated: result has no corruption strength")
	}

	delta := corruptionGain(strength, res)
	if res.RevertsPrevious && res.Previous != nil {
		delta -= corruptionGain(strength, res.Previous)
	}

	report := &CorruptionReport{Delta: delta}
	err := p.store.Update(ctx, res.Spec.Actor.ID, func(c *character.Character) error {
		c.Corruption += delta
		if c.Corruption < 0 {
			c.Corruption = 0
		}
		report.Total = c.Corruption
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consequence: apply corruption: %w", err)
	}

	if report.Total > prep.CorruptionMax {
		report.NeedsMutationTest = true
		p.notifier.Notify(ctx, fmt.Sprintf("%s exceeds their corruption threshold: test Endurance or risk mutation", res.Spec.Actor.Name))
	}
	return report, nil
}

// corruptionGain is the gain table by exposure strength and outcome.
func corruptionGain(strength ruleset.CorruptionStrength, res *roll.Result) int {
	switch strength {
	case ruleset.CorruptionMinor:
		if !res.Success {
			return 1
		}
	case ruleset.CorruptionModerate:
		if !res.Success {
			return 2
		}
		if res.SL < 2 {
			return 1
		}
	case ruleset.CorruptionMajor:
		if !res.Success {
			return 3
		}
		if res.SL < 2 {
			return 2
		}
		if res.SL < 4 {
			return 1
		}
	}
	return 0
}

// MutationReport describes the outcome of an over-threshold mutation test.
type MutationReport struct {
	Mutated bool
	// CorruptionRemoved is the willpower bonus worth of corruption shed on a
	// failed test.
	CorruptionRemoved int
}

// Mutation applies the follow-up test after corruption passes the
// threshold. Failure shreds willpower-bonus corruption into a mutation; the
// host is told to draw one.
func (p *Processor) Mutation(ctx context.Context, res *roll.Result) (*MutationReport, error) {
	report := &MutationReport{}
	if res.Success {
		return report, nil
	}

	wpb := res.Spec.Actor.Characteristic("wp").Bonus()
	err := p.store.Update(ctx, res.Spec.Actor.ID, func(c *character.Character) error {
		removed := wpb
		if removed > c.Corruption {
			removed = c.Corruption
		}
		c.Corruption -= removed
		report.CorruptionRemoved = removed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consequence: apply mutation: %w", err)
	}
	report.Mutated = true
	p.notifier.Notify(ctx, fmt.Sprintf("%s gains a mutation: draw from the corruption table", res.Spec.Actor.Name))
	return report, nil
}

func removePossession(c *character.Character, id string) {
	for i, poss := range c.Possessions {
		if poss.ID == id {
			c.Possessions = append(c.Possessions[:i], c.Possessions[i+1:]...)
			return
		}
	}
}
