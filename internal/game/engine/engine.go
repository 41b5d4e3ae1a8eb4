// Package engine is the facade the host application drives: it wires the
// preparer, test builder, resolver, and consequence processor behind a
// store-backed API keyed by character IDs.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/condition"
	"github.com/oldworld-vtt/grimcore/internal/game/consequence"
	"github.com/oldworld-vtt/grimcore/internal/game/dice"
	"github.com/oldworld-vtt/grimcore/internal/game/equipment"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/roll"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
	"github.com/oldworld-vtt/grimcore/internal/host"
)

// TestKind names an engine test entry point.
type TestKind string

const (
	TestCharacteristic TestKind = "characteristic"
	TestSkill          TestKind = "skill"
	TestWeapon         TestKind = "weapon"
	TestTrait          TestKind = "trait"
	TestCast           TestKind = "cast"
	TestChannel        TestKind = "channel"
	TestPray           TestKind = "pray"
	TestIncome         TestKind = "income"
	TestCorruption     TestKind = "corruption"
	TestMutation       TestKind = "mutation"
)

// TestRequest asks the engine to build one test.
type TestRequest struct {
	ActorID string
	Kind    TestKind
	// Ref is the characteristic abbreviation or possession ID the kind
	// tests against; income uses it for the optional career skill and
	// corruption for the skill name.
	Ref string
	// Strength grades a corruption exposure.
	Strength ruleset.CorruptionStrength

	Context roll.Context
}

// Deps are the host-provided collaborators.
type Deps struct {
	Store    host.Store
	Dialog   host.Dialog
	Notifier host.Notifier
	Audio    host.AudioHint
}

// Engine is the rules-engine facade. Construct once and share; all methods
// are safe for concurrent use as long as the store serializes updates.
type Engine struct {
	cfg      config.Config
	rules    *ruleset.Rules
	hooks    *hook.Registry
	deps     Deps
	preparer *character.Preparer
	builder  *roll.Builder
	resolver *roll.Resolver
	proc     *consequence.Processor
	condReg  *condition.Registry
	logger   *zap.Logger
}

// New wires an Engine.
//
// Precondition: rules, conditions, roller, logger, and every Deps field must
// be non-nil.
func New(cfg config.Config, rules *ruleset.Rules, conditions *condition.Registry, deps Deps, roller dice.Roller, logger *zap.Logger) *Engine {
	if rules == nil || conditions == nil || roller == nil || logger == nil ||
		deps.Store == nil || deps.Dialog == nil || deps.Notifier == nil || deps.Audio == nil {
		panic("engine: New: precondition violated: collaborators must be non-nil")
	}
	hooks := hook.NewRegistry(logger)
	return &Engine{
		cfg:      cfg,
		rules:    rules,
		hooks:    hooks,
		deps:     deps,
		preparer: character.NewPreparer(rules, conditions, hooks, cfg.Options, logger),
		builder:  roll.NewBuilder(rules, cfg.Options, hooks, logger),
		resolver: roll.NewResolver(rules, cfg.Options, roller, logger),
		proc:     consequence.NewProcessor(rules, cfg.Options, hooks, deps.Store, deps.Notifier, deps.Audio, roller, logger),
		condReg:  conditions,
		logger:   logger,
	}
}

// Hooks exposes the trigger registry for optional-rule registration during
// setup.
func (e *Engine) Hooks() *hook.Registry {
	return e.hooks
}

// PrepareCharacter derives the snapshot for a stored character and writes
// back the wound maximum when the formula moved it. Current wounds are
// clamped to the new maximum.
func (e *Engine) PrepareCharacter(ctx context.Context, id string) (*character.Prepared, error) {
	c, mount, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	prep, err := e.preparer.Prepare(c, mount)
	if err != nil {
		return nil, err
	}

	if c.Flags.AutoCalcWounds && c.Wounds.Max != prep.WoundsMax {
		err := e.deps.Store.Update(ctx, id, func(c *character.Character) error {
			c.Wounds.Max = prep.WoundsMax
			if c.Wounds.Value > prep.WoundsMax {
				c.Wounds.Value = prep.WoundsMax
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("engine: persist wounds for %q: %w", c.Name, err)
		}
	}
	return prep, nil
}

// BuildTest builds a test specification for the request and confirms it
// through the host dialog.
//
// Postcondition: Returns host.ErrCancelled when the user declines.
func (e *Engine) BuildTest(ctx context.Context, req TestRequest) (*roll.Specification, error) {
	c, mount, err := e.load(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	prep, err := e.preparer.Prepare(c, mount)
	if err != nil {
		return nil, err
	}

	var spec *roll.Specification
	switch req.Kind {
	case TestCharacteristic:
		spec, err = e.builder.Characteristic(c, prep, req.Ref, req.Context)
	case TestSkill:
		spec, err = e.builder.Skill(c, prep, req.Ref, req.Context)
	case TestWeapon:
		spec, err = e.builder.Weapon(c, prep, req.Ref, req.Context)
	case TestTrait:
		spec, err = e.builder.Trait(c, prep, req.Ref, req.Context)
	case TestCast:
		spec, err = e.builder.Cast(c, prep, req.Ref, req.Context)
	case TestChannel:
		spec, err = e.builder.Channel(c, prep, req.Ref, req.Context)
	case TestPray:
		spec, err = e.builder.Pray(c, prep, req.Ref, req.Context)
	case TestIncome:
		spec, err = e.builder.Income(c, prep, req.Ref, req.Context)
	case TestCorruption:
		spec, err = e.builder.Corruption(c, prep, req.Ref, req.Strength, req.Context)
	case TestMutation:
		spec, err = e.builder.Mutation(c, prep, req.Context)
	default:
		return nil, fmt.Errorf("engine: unknown test kind %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := e.deps.Dialog.Confirm(ctx, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// ResolveTest rolls and resolves a confirmed specification. Weapon tests
// expend ammunition and unload loading weapons; the ammunition precondition
// is re-validated at expenditure in case the supply changed since the build.
func (e *Engine) ResolveTest(ctx context.Context, spec *roll.Specification) (*roll.Result, error) {
	res, err := e.resolver.Resolve(spec, e.resolver.Roll())
	if err != nil {
		return nil, err
	}
	if spec.WeaponID != "" {
		if err := e.expendAmmo(ctx, spec); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (e *Engine) expendAmmo(ctx context.Context, spec *roll.Specification) error {
	return e.deps.Store.Update(ctx, spec.Actor.ID, func(c *character.Character) error {
		weapon := c.Possession(spec.WeaponID)
		if weapon == nil || weapon.Weapon == nil {
			return fmt.Errorf("engine: weapon %q vanished before firing", spec.WeaponID)
		}
		if weapon.Weapon.ConsumesAmmo {
			ammo, err := equipment.AmmoFor(weapon, c.Possessions)
			if err != nil {
				return err
			}
			if ammo != nil {
				ammo.Quantity--
			}
		}
		if weapon.Weapon.Loading {
			weapon.Weapon.Loaded = false
		}
		return nil
	})
}

// Outcome aggregates the consequence reports of one applied result.
type Outcome struct {
	Damage     *consequence.DamageReport
	Extended   *consequence.ExtendedReport
	Income     *consequence.IncomeReport
	Corruption *consequence.CorruptionReport
	Mutation   *consequence.MutationReport
}

// ApplyConsequences routes a resolved test to its consequence processors:
// extended progress when the test feeds a tracker, the category-specific
// processor for income, corruption, and mutation tests, and damage when a
// defender is named and the hit landed.
func (e *Engine) ApplyConsequences(ctx context.Context, res *roll.Result, defenderID string) (*Outcome, error) {
	out := &Outcome{}
	var err error

	if res.Spec.Context.ExtendedTestID != "" {
		out.Extended, err = e.proc.ExtendedProgress(ctx, res)
		if err != nil {
			return nil, err
		}
	}

	switch res.Spec.Category {
	case roll.CategoryIncome:
		out.Income, err = e.proc.Income(ctx, res)
	case roll.CategoryCorruption:
		out.Corruption, err = e.applyCorruption(ctx, res)
	case roll.CategoryMutation:
		out.Mutation, err = e.proc.Mutation(ctx, res)
	}
	if err != nil {
		return nil, err
	}

	if defenderID != "" && res.Success && res.Damage > 0 {
		defender, mount, err := e.load(ctx, defenderID)
		if err != nil {
			return nil, err
		}
		prep, err := e.preparer.Prepare(defender, mount)
		if err != nil {
			return nil, err
		}
		out.Damage, err = e.proc.ApplyDamage(ctx, res, defender, prep)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) applyCorruption(ctx context.Context, res *roll.Result) (*consequence.CorruptionReport, error) {
	prep, err := e.preparer.Prepare(res.Spec.Actor, nil)
	if err != nil {
		return nil, err
	}
	return e.proc.Corruption(ctx, res, prep)
}

// AddCondition raises a condition on a stored character, with linked
// conditions following.
func (e *Engine) AddCondition(ctx context.Context, characterID, conditionID string, n int) error {
	return e.deps.Store.Update(ctx, characterID, func(c *character.Character) error {
		ledger := condition.NewLedger(e.condReg, c.Conditions)
		if _, err := ledger.Add(conditionID, n); err != nil {
			return err
		}
		c.Conditions = ledger.Active()
		return nil
	})
}

// RemoveCondition lowers a condition on a stored character, with fatigue
// left behind where the rules say so.
func (e *Engine) RemoveCondition(ctx context.Context, characterID, conditionID string, n int) error {
	return e.deps.Store.Update(ctx, characterID, func(c *character.Character) error {
		ledger := condition.NewLedger(e.condReg, c.Conditions)
		if _, err := ledger.Remove(conditionID, n); err != nil {
			return err
		}
		c.Conditions = ledger.Active()
		return nil
	})
}

// StartReload creates an extended-test tracker for reloading a fired loading
// weapon. Progress is fed through ApplyConsequences with the tracker's ID in
// the test context; completion marks the weapon loaded and removes the
// tracker. Returns the tracker ID.
func (e *Engine) StartReload(ctx context.Context, characterID, weaponID string) (string, error) {
	var trackerID string
	err := e.deps.Store.Update(ctx, characterID, func(c *character.Character) error {
		weapon := c.Possession(weaponID)
		if weapon == nil || weapon.Kind != item.KindWeapon {
			return fmt.Errorf("engine: possession %q is not a weapon", weaponID)
		}
		if !weapon.Weapon.Loading {
			return fmt.Errorf("engine: %q does not need loading", weapon.Name)
		}
		if weapon.Weapon.Loaded {
			return fmt.Errorf("engine: %q is already loaded", weapon.Name)
		}
		for _, p := range c.Possessions {
			if p.Kind == item.KindExtendedTest && p.Extended.ReloadWeaponID == weaponID {
				trackerID = p.ID
				return nil
			}
		}
		tracker := item.New(item.KindExtendedTest, fmt.Sprintf("Reload: %s", weapon.Name))
		tracker.Extended = &item.ExtendedTest{
			Target:         weapon.Weapon.ReloadTarget(),
			Completion:     item.CompletionRemove,
			ReloadWeaponID: weaponID,
		}
		c.Possessions = append(c.Possessions, tracker)
		trackerID = tracker.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return trackerID, nil
}

// CreateCharacter stores a new character with the starter possession set.
func (e *Engine) CreateCharacter(ctx context.Context, name string) (*character.Character, error) {
	c := character.New(name)
	if err := e.deps.Store.Put(ctx, c); err != nil {
		return nil, err
	}
	e.logger.Info("character created", zap.String("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// load fetches a character and, when mounted, its mount.
func (e *Engine) load(ctx context.Context, id string) (*character.Character, *character.Character, error) {
	c, err := e.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var mount *character.Character
	if c.Mounted && c.MountID != "" {
		mount, err = e.deps.Store.Get(ctx, c.MountID)
		if err != nil {
			e.logger.Warn("mount not found, preparing unmounted",
				zap.String("character", c.Name),
				zap.String("mount_id", c.MountID),
			)
			mount = nil
		}
	}
	return c, mount, nil
}
