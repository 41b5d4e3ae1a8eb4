package roll

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/equipment"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/modifier"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
)

// PrefillPayload is passed to PrefillDialog and TargetPrefillDialog hooks.
// Callbacks add contributions to the specification under construction.
type PrefillPayload struct {
	Spec *Specification
}

// Builder prefills test specifications from character state and situation.
// It holds only read-only collaborators and is safe for concurrent use.
type Builder struct {
	rules  *ruleset.Rules
	opts   config.Options
	hooks  *hook.Registry
	logger *zap.Logger
}

// NewBuilder creates a Builder.
//
// Precondition: rules, hooks, and logger must be non-nil.
func NewBuilder(rules *ruleset.Rules, opts config.Options, hooks *hook.Registry, logger *zap.Logger) *Builder {
	if rules == nil || hooks == nil || logger == nil {
		panic("roll: NewBuilder: precondition violated: collaborators must be non-nil")
	}
	return &Builder{rules: rules, opts: opts, hooks: hooks, logger: logger}
}

// Characteristic builds a raw characteristic test.
//
// Precondition: actor and prep must be non-nil.
func (b *Builder) Characteristic(actor *character.Character, prep *character.Prepared, abbrev string, ctx Context) (*Specification, error) {
	spec := b.newSpec(actor, prep, CategoryCharacteristic, strings.ToUpper(abbrev), ctx)
	spec.BaseTarget = actor.Characteristic(abbrev).Value()
	b.prefill(spec)
	return spec, nil
}

// Skill builds a skill test.
//
// Postcondition: Returns an error for a missing or non-skill possession.
func (b *Builder) Skill(actor *character.Character, prep *character.Prepared, skillID string, ctx Context) (*Specification, error) {
	skill := actor.Possession(skillID)
	if skill == nil || skill.Kind != item.KindSkill {
		return nil, fmt.Errorf("roll: possession %q is not a skill", skillID)
	}
	spec := b.newSpec(actor, prep, CategorySkill, skill.Name, ctx)
	spec.SkillID = skill.ID
	spec.BaseTarget = actor.SkillTarget(skill)
	b.prefill(spec)
	return spec, nil
}

// Weapon builds an attack test with a weapon possession. Ammunition and
// loading preconditions are checked up front; equipment.ErrNoAmmo and
// equipment.ErrNotLoaded abort the build.
func (b *Builder) Weapon(actor *character.Character, prep *character.Prepared, weaponID string, ctx Context) (*Specification, error) {
	weapon := actor.Possession(weaponID)
	if weapon == nil || weapon.Kind != item.KindWeapon {
		return nil, fmt.Errorf("roll: possession %q is not a weapon", weaponID)
	}
	if err := equipment.CheckLoaded(weapon); err != nil {
		return nil, err
	}
	ammo, err := equipment.AmmoFor(weapon, actor.Possessions)
	if err != nil {
		return nil, err
	}

	spec := b.newSpec(actor, prep, CategoryWeapon, weapon.Name, ctx)
	spec.WeaponID = weapon.ID
	spec.RollHitLocation = true
	spec.DamageFormula = weapon.Weapon.Damage
	if ammo != nil && ammo.Ammunition != nil {
		spec.AmmoDamageMod = ammo.Ammunition.DamageMod
	}

	if skill := weaponSkill(actor, weapon.Weapon); skill != nil {
		spec.SkillID = skill.ID
		spec.BaseTarget = actor.SkillTarget(skill)
	} else if weapon.Weapon.AttackType == item.AttackRanged {
		spec.BaseTarget = actor.Characteristic("bs").Value()
	} else {
		spec.BaseTarget = actor.Characteristic("ws").Value()
	}
	b.prefill(spec)
	return spec, nil
}

// Trait builds a test for a rollable trait.
//
// Postcondition: Returns ErrNotRollable for traits without a rollable form.
func (b *Builder) Trait(actor *character.Character, prep *character.Prepared, traitID string, ctx Context) (*Specification, error) {
	trait := actor.Possession(traitID)
	if trait == nil || trait.Kind != item.KindTrait {
		return nil, fmt.Errorf("roll: possession %q is not a trait", traitID)
	}
	if !trait.Trait.Rollable {
		return nil, ErrNotRollable
	}

	spec := b.newSpec(actor, prep, CategoryTrait, trait.Name, ctx)
	spec.TraitID = trait.ID
	spec.BaseTarget = actor.Characteristic(trait.Trait.RollCharacteristic).Value()
	if trait.Trait.Damage != "" {
		spec.RollHitLocation = true
		spec.DamageFormula = trait.Trait.Damage
	}
	if trait.Trait.DefaultDifficulty != "" && ctx.Absolute.Difficulty == nil {
		d := trait.Trait.DefaultDifficulty
		spec.Context.Absolute.Difficulty = &d
	}
	b.prefill(spec)
	return spec, nil
}

// Cast builds a casting test for a spell, using the spell's test skill or
// Language (Magick), falling back to Willpower.
func (b *Builder) Cast(actor *character.Character, prep *character.Prepared, spellID string, ctx Context) (*Specification, error) {
	spell := actor.Possession(spellID)
	if spell == nil || spell.Kind != item.KindSpell {
		return nil, fmt.Errorf("roll: possession %q is not a spell", spellID)
	}
	spec := b.newSpec(actor, prep, CategoryCast, spell.Name, ctx)
	spec.SpellID = spell.ID
	spec.DamageFormula = spell.Spell.Damage
	if spell.Spell.Damage != "" {
		spec.RollHitLocation = true
	}
	b.applyCastingSkill(spec, actor, spell.Spell.TestSkill, "Language (Magick)", "wp")
	b.prefill(spec)
	return spec, nil
}

// Channel builds a channelling test for a spell. Advantage never prefills
// channelling tests.
func (b *Builder) Channel(actor *character.Character, prep *character.Prepared, spellID string, ctx Context) (*Specification, error) {
	spell := actor.Possession(spellID)
	if spell == nil || spell.Kind != item.KindSpell {
		return nil, fmt.Errorf("roll: possession %q is not a spell", spellID)
	}
	spec := b.newSpec(actor, prep, CategoryChannelling, spell.Name, ctx)
	spec.SpellID = spell.ID
	channelSkill := fmt.Sprintf("Channelling (%s)", spell.Spell.Lore)
	b.applyCastingSkill(spec, actor, "", channelSkill, "wp")
	b.prefill(spec)
	return spec, nil
}

// Pray builds an invocation test for a prayer, on the Pray skill or
// Fellowship.
func (b *Builder) Pray(actor *character.Character, prep *character.Prepared, prayerID string, ctx Context) (*Specification, error) {
	prayer := actor.Possession(prayerID)
	if prayer == nil || prayer.Kind != item.KindPrayer {
		return nil, fmt.Errorf("roll: possession %q is not a prayer", prayerID)
	}
	spec := b.newSpec(actor, prep, CategoryPrayer, prayer.Name, ctx)
	spec.PrayerID = prayer.ID
	spec.DamageFormula = prayer.Prayer.Damage
	if prayer.Prayer.Damage != "" {
		spec.RollHitLocation = true
	}
	b.applyCastingSkill(spec, actor, prayer.Prayer.TestSkill, "Pray", "fel")
	b.prefill(spec)
	return spec, nil
}

// Income builds the downtime earnings test for the current career. The
// difficulty is fixed at average. skillID optionally names the career skill
// rolled; empty falls back to Fellowship.
func (b *Builder) Income(actor *character.Character, prep *character.Prepared, skillID string, ctx Context) (*Specification, error) {
	if actor.CurrentCareer() == nil {
		return nil, fmt.Errorf("roll: %q has no current career for an income test", actor.Name)
	}
	spec := b.newSpec(actor, prep, CategoryIncome, "Income", ctx)
	if skillID != "" {
		skill := actor.Possession(skillID)
		if skill == nil || skill.Kind != item.KindSkill {
			return nil, fmt.Errorf("roll: possession %q is not a skill", skillID)
		}
		spec.SkillID = skill.ID
		spec.Name = skill.Name
		spec.BaseTarget = actor.SkillTarget(skill)
	} else {
		spec.BaseTarget = actor.Characteristic("fel").Value()
	}
	b.prefill(spec)
	return spec, nil
}

// Corruption builds the test against a corruption exposure, on Cool or
// Endurance. The difficulty is fixed at challenging.
//
// Precondition: strength must be a known CorruptionStrength.
func (b *Builder) Corruption(actor *character.Character, prep *character.Prepared, skillName string, strength ruleset.CorruptionStrength, ctx Context) (*Specification, error) {
	switch strength {
	case ruleset.CorruptionMinor, ruleset.CorruptionModerate, ruleset.CorruptionMajor:
	default:
		panic(fmt.Sprintf("roll: Corruption: precondition violated: unknown strength %q", strength))
	}
	ctx.CorruptionStrength = strength

	spec := b.newSpec(actor, prep, CategoryCorruption, "Corruption", ctx)
	if skill := actor.SkillByName(skillName); skill != nil {
		spec.SkillID = skill.ID
		spec.Name = skill.Name
		spec.BaseTarget = actor.SkillTarget(skill)
	} else if strings.EqualFold(skillName, "Endurance") {
		spec.BaseTarget = actor.Characteristic("t").Value()
	} else {
		spec.BaseTarget = actor.Characteristic("wp").Value()
	}
	b.prefill(spec)
	return spec, nil
}

// Mutation builds the over-threshold corruption follow-up test on Endurance
// or Toughness. The difficulty is fixed at challenging.
func (b *Builder) Mutation(actor *character.Character, prep *character.Prepared, ctx Context) (*Specification, error) {
	ctx.Mutation = true
	spec := b.newSpec(actor, prep, CategoryMutation, "Mutation", ctx)
	if skill := actor.SkillByName("Endurance"); skill != nil {
		spec.SkillID = skill.ID
		spec.BaseTarget = actor.SkillTarget(skill)
	} else {
		spec.BaseTarget = actor.Characteristic("t").Value()
	}
	b.prefill(spec)
	return spec, nil
}

func (b *Builder) newSpec(actor *character.Character, prep *character.Prepared, cat Category, name string, ctx Context) *Specification {
	if actor == nil || prep == nil {
		panic("roll: precondition violated: actor and prep must be non-nil")
	}
	return &Specification{
		Actor:      actor,
		Prepared:   prep,
		Category:   cat,
		Name:       name,
		Difficulty: b.baseDifficulty(cat, ctx),
		Context:    ctx,
		rules:      b.rules,
	}
}

// baseDifficulty picks the starting tier. Corruption and mutation tests are
// always challenging; income and rest tests always average.
func (b *Builder) baseDifficulty(cat Category, ctx Context) ruleset.Difficulty {
	switch {
	case cat == CategoryCorruption || cat == CategoryMutation:
		return ruleset.Challenging
	case cat == CategoryIncome || ctx.Rest:
		return ruleset.Average
	case ctx.InCombat:
		return ruleset.Challenging
	case b.opts.DefaultDifficultyAverage:
		return ruleset.Average
	default:
		return ruleset.Challenging
	}
}

// prefill runs the ordered modifier steps. Each step is isolated: a panic
// discards that step's contributions, logs a warning, and leaves the rest of
// the prefill intact.
func (b *Builder) prefill(spec *Specification) {
	b.step(spec, "situational", b.stepSituational)
	b.step(spec, "advantage", b.stepAdvantage)
	b.step(spec, "conditions", b.stepConditions)
	b.step(spec, "mounted dodge", b.stepMountedDodge)
	b.step(spec, "weapon properties", b.stepWeaponProperties)
	b.step(spec, "defending", b.stepDefending)
	b.step(spec, "range band", b.stepRangeBand)
	b.step(spec, "target size", b.stepTargetSize)
	b.step(spec, "mount size", b.stepMountSize)
	b.step(spec, "armour noise", b.stepArmourNoise)

	trigger := hook.PrefillDialog
	if spec.Context.Target != nil {
		trigger = hook.TargetPrefillDialog
	}
	b.hooks.Run(trigger, &PrefillPayload{Spec: spec})

	if steps := spec.Modifiers.DifficultySteps(); steps != 0 {
		spec.Difficulty = ruleset.AlterDifficulty(spec.Difficulty, steps)
	}
	if spec.Context.Absolute.Difficulty != nil {
		spec.Difficulty = *spec.Context.Absolute.Difficulty
	}
}

func (b *Builder) step(spec *Specification, name string, fn func(*Specification, *modifier.Accumulator)) {
	var acc modifier.Accumulator
	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				b.logger.Warn("prefill step failed, contributing nothing",
					zap.String("step", name),
					zap.Any("panic", r),
				)
			}
		}()
		fn(spec, &acc)
		return true
	}()
	if !ok {
		return
	}
	for _, c := range acc.Contributions() {
		spec.Modifiers.Add(c)
	}
}

func (b *Builder) stepSituational(spec *Specification, acc *modifier.Accumulator) {
	if spec.Context.Modify != 0 {
		acc.Add(modifier.Contribution{Reason: "Situational", Modifier: spec.Context.Modify})
	}
}

func (b *Builder) stepAdvantage(spec *Specification, acc *modifier.Accumulator) {
	if !b.opts.AutoFillAdvantage || spec.Category == CategoryChannelling {
		return
	}
	if adv := spec.Prepared.Advantage; adv > 0 {
		acc.Add(modifier.Contribution{Reason: "Advantage", Modifier: 10 * adv})
	}
}

func (b *Builder) stepConditions(spec *Specification, acc *modifier.Accumulator) {
	for _, c := range spec.Prepared.Conditions.Contributions() {
		acc.Add(c)
	}
}

func (b *Builder) stepMountedDodge(spec *Specification, acc *modifier.Accumulator) {
	if spec.Context.Dodge && spec.Prepared.Mount != nil {
		acc.Add(modifier.Contribution{Reason: "Dodging while mounted", Modifier: -20})
	}
}

func (b *Builder) stepWeaponProperties(spec *Specification, acc *modifier.Accumulator) {
	w := b.specWeapon(spec)
	if w == nil {
		return
	}
	if w.HasQuality(item.QualityAccurate) {
		acc.Add(modifier.Contribution{Reason: "Accurate weapon", Modifier: 10})
	}
	if spec.Context.Target != nil {
		if w.HasQuality(item.QualityPrecise) {
			acc.Add(modifier.Contribution{Reason: "Precise weapon", SuccessBonus: 1})
		}
		if w.HasFlaw(item.FlawImprecise) {
			acc.Add(modifier.Contribution{Reason: "Imprecise weapon", SLBonus: -1})
		}
	}
	if w.Offhand && !w.TwoHanded && !parryingDefensively(w) {
		mitigation := 10 * spec.Actor.TalentRanks("Ambidextrous")
		if mitigation > 20 {
			mitigation = 20
		}
		acc.Add(modifier.Contribution{Reason: "Off-hand weapon", Modifier: -20 + mitigation})
	}
}

// parryingDefensively reports a parry-group weapon with the defensive
// quality, which carries no off-hand penalty.
func parryingDefensively(w *item.Weapon) bool {
	return strings.EqualFold(w.Group, "parry") && w.HasQuality(item.QualityDefensive)
}

// stepDefending applies modifiers when this test defends against a resolved
// attack: defensive weapons grant SL, the attacker's weapon pacing shifts
// the odds, and a bigger attacker bleeds SL.
func (b *Builder) stepDefending(spec *Specification, acc *modifier.Accumulator) {
	attack := spec.Context.AttackerTest
	if attack == nil {
		return
	}

	if w := b.specWeapon(spec); w != nil && w.HasQuality(item.QualityDefensive) {
		acc.Add(modifier.Contribution{Reason: "Defensive weapon", SLBonus: 1})
	}

	aw := b.resultWeapon(attack)
	if aw == nil {
		return
	}
	if aw.HasFlaw(item.FlawSlow) {
		acc.Add(modifier.Contribution{Reason: "Attacker's slow weapon", SLBonus: 1})
	}
	if aw.HasQuality(item.QualityWrap) {
		acc.Add(modifier.Contribution{Reason: "Attacker's wrapping weapon", SLBonus: -1})
	}
	if aw.HasQuality(item.QualityFast) && aw.AttackType == item.AttackMelee {
		dw := b.specWeapon(spec)
		if dw == nil || !dw.HasQuality(item.QualityFast) {
			acc.Add(modifier.Contribution{Reason: "Attacker's fast weapon", Modifier: -10})
		}
	}

	delta := attack.Spec.Prepared.SizeNum - spec.Prepared.SizeNum
	if delta > 0 {
		acc.Add(modifier.Contribution{Reason: "Defending against a larger creature", SLBonus: -2 * delta})
	}
}

func (b *Builder) stepRangeBand(spec *Specification, acc *modifier.Accumulator) {
	if !b.opts.RangeAutoCalc || spec.Context.Target == nil || spec.Context.Distance <= 0 {
		return
	}
	w := b.specWeapon(spec)
	if w == nil || w.AttackType != item.AttackRanged {
		return
	}
	bands, err := w.RangeBands()
	if err != nil {
		return
	}
	band, ok := ruleset.BandFor(bands, float64(spec.Context.Distance))
	if !ok {
		return
	}
	acc.Add(modifier.Contribution{Reason: band.Name, Modifier: band.Modifier})
}

// stepTargetSize covers the size-difference modifiers: ranged attacks scale
// with the target's bulk and melee attacks against bigger foes are easier.
func (b *Builder) stepTargetSize(spec *Specification, acc *modifier.Accumulator) {
	tp := spec.Context.TargetPrepared
	if tp == nil {
		return
	}
	w := b.specWeapon(spec)

	if w != nil && w.AttackType == item.AttackRanged {
		if mod, ok := b.rules.RangedTargetSize[tp.Size]; ok && mod != 0 {
			acc.Add(modifier.Contribution{Reason: fmt.Sprintf("Target size (%s)", tp.Size), Modifier: mod})
		}
		return
	}
	if w != nil && w.AttackType == item.AttackMelee && tp.SizeNum > spec.Prepared.SizeNum {
		acc.Add(modifier.Contribution{Reason: "Larger target", Modifier: 10})
	}
}

// stepMountSize compares each side's effective bulk, mount included, and
// only a genuine size edge moves the odds.
func (b *Builder) stepMountSize(spec *Specification, acc *modifier.Accumulator) {
	w := b.specWeapon(spec)
	if w == nil || w.AttackType != item.AttackMelee {
		return
	}
	tp := spec.Context.TargetPrepared
	if tp == nil {
		return
	}

	attackerSize := spec.Prepared.SizeNum
	if m := spec.Prepared.Mount; m != nil && m.SizeNum > attackerSize {
		attackerSize = m.SizeNum
	}
	defenderSize := tp.SizeNum
	if m := tp.Mount; m != nil && m.SizeNum > defenderSize {
		defenderSize = m.SizeNum
	}

	if spec.Prepared.Mount != nil && attackerSize > defenderSize {
		acc.Add(modifier.Contribution{Reason: "Mounted above the target", Modifier: 20})
	}
	if tp.Mount != nil && defenderSize > attackerSize {
		acc.Add(modifier.Contribution{Reason: "Target is mounted", Modifier: -10})
	}
}

// stepArmourNoise penalises Stealth tests once per noisy armour type worn,
// with practical construction offsetting per piece. The contribution never
// goes positive.
func (b *Builder) stepArmourNoise(spec *Specification, acc *modifier.Accumulator) {
	if !strings.Contains(strings.ToLower(spec.Name), "stealth") {
		return
	}
	l := spec.Prepared.Loadout
	noisyTypes := 0
	if l.WearingMail {
		noisyTypes++
	}
	if l.WearingPlate {
		noisyTypes++
	}
	penalty := noisyTypes*b.rules.StealthArmourPenalty + l.PracticalPieces*b.rules.PracticalOffset
	if penalty >= 0 {
		return
	}
	acc.Add(modifier.Contribution{Reason: "Noisy armour", Modifier: penalty})
}

// specWeapon resolves the weapon behind a specification, nil when the test
// involves none.
func (b *Builder) specWeapon(spec *Specification) *item.Weapon {
	if spec.WeaponID == "" {
		return nil
	}
	p := spec.Actor.Possession(spec.WeaponID)
	if p == nil || p.Kind != item.KindWeapon {
		return nil
	}
	return p.Weapon
}

func (b *Builder) resultWeapon(res *Result) *item.Weapon {
	if res == nil || res.Spec == nil || res.Spec.WeaponID == "" {
		return nil
	}
	p := res.Spec.Actor.Possession(res.Spec.WeaponID)
	if p == nil || p.Kind != item.KindWeapon {
		return nil
	}
	return p.Weapon
}

// applyCastingSkill sets the base target from the named test skill, the
// conventional fallback skill, or the fallback characteristic, in that
// order.
func (b *Builder) applyCastingSkill(spec *Specification, actor *character.Character, testSkill, fallbackSkill, fallbackChar string) {
	for _, name := range []string{testSkill, fallbackSkill} {
		if name == "" {
			continue
		}
		if skill := actor.SkillByName(name); skill != nil {
			spec.SkillID = skill.ID
			spec.BaseTarget = actor.SkillTarget(skill)
			return
		}
	}
	spec.BaseTarget = actor.Characteristic(fallbackChar).Value()
}

// weaponSkill finds the melee or ranged skill matching the weapon's group.
func weaponSkill(actor *character.Character, w *item.Weapon) *item.Possession {
	prefix := "melee"
	if w.AttackType == item.AttackRanged {
		prefix = "ranged"
	}
	group := strings.ToLower(w.Group)
	for _, p := range actor.Possessions {
		if p.Kind != item.KindSkill {
			continue
		}
		name := strings.ToLower(p.Name)
		if strings.HasPrefix(name, prefix) && strings.Contains(name, group) {
			return p
		}
	}
	return nil
}
