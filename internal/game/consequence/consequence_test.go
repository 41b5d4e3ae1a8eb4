package consequence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/condition"
	"github.com/oldworld-vtt/grimcore/internal/game/consequence"
	"github.com/oldworld-vtt/grimcore/internal/game/hook"
	"github.com/oldworld-vtt/grimcore/internal/game/item"
	"github.com/oldworld-vtt/grimcore/internal/game/roll"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
	"github.com/oldworld-vtt/grimcore/internal/host"
)

type fixedRoller struct {
	percentile int
	die        int
}

func (r *fixedRoller) RollPercentile() int         { return r.percentile }
func (r *fixedRoller) RollDie(string) (int, error) { return r.die, nil }

type recNotifier struct {
	messages []string
}

func (n *recNotifier) Notify(_ context.Context, message string) {
	n.messages = append(n.messages, message)
}

type fixture struct {
	store    *host.MemStore
	notifier *recNotifier
	roller   *fixedRoller
	hooks    *hook.Registry
	proc     *consequence.Processor
	builder  *roll.Builder
	resolver *roll.Resolver
	preparer *character.Preparer
}

func newFixture(t *testing.T, opts config.Options) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &fixture{
		store:    host.NewMemStore(),
		notifier: &recNotifier{},
		roller:   &fixedRoller{die: 5},
		hooks:    hook.NewRegistry(logger),
	}
	rules := ruleset.Default()
	f.proc = consequence.NewProcessor(rules, opts, f.hooks, f.store, f.notifier, host.NopAudio{}, f.roller, logger)
	f.builder = roll.NewBuilder(rules, opts, f.hooks, logger)
	f.resolver = roll.NewResolver(rules, opts, f.roller, logger)
	f.preparer = character.NewPreparer(rules, condition.Defaults(), f.hooks, opts, logger)
	return f
}

func (f *fixture) prepare(t *testing.T, c *character.Character) *character.Prepared {
	t.Helper()
	prep, err := f.preparer.Prepare(c, nil)
	require.NoError(t, err)
	return prep
}

// attacker has ws 40 and sb 4; the sword deals sb+4 plus SL.
func attacker(t *testing.T, f *fixture) (*character.Character, *item.Possession) {
	t.Helper()
	c := character.New("Attacker")
	c.Characteristics["ws"].Initial = 40
	c.Characteristics["s"].Initial = 40
	sword := item.New(item.KindWeapon, "Sword")
	sword.Weapon = &item.Weapon{Damage: "sb+4", AttackType: item.AttackMelee, Group: "basic"}
	sword.Equipped = true
	c.Possessions = append(c.Possessions, sword)
	require.NoError(t, f.store.Put(context.Background(), c))
	return c, sword
}

// defender has tb 4 and 12 wounds.
func defender(t *testing.T, f *fixture) *character.Character {
	t.Helper()
	c := character.New("Defender")
	c.Characteristics["t"].Initial = 40
	c.Wounds = character.Pool{Value: 12, Max: 12}
	require.NoError(t, f.store.Put(context.Background(), c))
	return c
}

func armourAt(c *character.Character, loc ruleset.Location, ap int, mutate func(*item.Armour)) {
	piece := item.New(item.KindArmour, "Armour")
	piece.Armour = &item.Armour{Locations: []ruleset.Location{loc}, AP: ap, Type: item.ArmourOther}
	if mutate != nil {
		mutate(piece.Armour)
	}
	piece.Equipped = true
	c.Possessions = append(c.Possessions, piece)
}

func (f *fixture) attack(t *testing.T, atk *character.Character, weaponID string, rolled int) *roll.Result {
	t.Helper()
	prep := f.prepare(t, atk)
	spec, err := f.builder.Weapon(atk, prep, weaponID, roll.Context{})
	require.NoError(t, err)
	res, err := f.resolver.Resolve(spec, rolled)
	require.NoError(t, err)
	return res
}

func TestApplyDamage_Mitigation(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	armourAt(def, ruleset.LocLeftArm, 3, nil)
	defPrep := f.prepare(t, def)

	// Roll 21: SL 2, damage 10, reversed to 12 which is the left arm.
	res := f.attack(t, atk, sword.ID, 21)
	require.Equal(t, 10, res.Damage)
	require.Equal(t, ruleset.LocLeftArm, res.HitLocation)

	report, err := f.proc.ApplyDamage(context.Background(), res, def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TB)
	assert.Equal(t, 3, report.AP)
	assert.Equal(t, 3, report.Net, "10 damage less TB 4 and AP 3")
	assert.Equal(t, 9, report.WoundsRemaining)
	assert.Equal(t, 9, def.Wounds.Value)
}

func TestApplyDamage_MinimumOne(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	armourAt(def, ruleset.LocLeftArm, 10, nil)
	defPrep := f.prepare(t, def)

	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Net, "fully absorbed hits still deal 1")
	assert.Equal(t, 11, def.Wounds.Value)
}

func TestApplyDamage_UndamagingAllowsZero(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	sword.Weapon.Flaws = map[item.Flaw]int{item.FlawUndamaging: 0}
	def := defender(t, f)
	armourAt(def, ruleset.LocLeftArm, 3, nil)
	defPrep := f.prepare(t, def)

	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Net, "doubled AP 6 plus TB 4 swallows 10")
	assert.Equal(t, 12, def.Wounds.Value)
}

func TestApplyDamage_UndamagingDoublesArmourNotShield(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	sword.Weapon.Flaws = map[item.Flaw]int{item.FlawUndamaging: 0}
	def := defender(t, f)
	armourAt(def, ruleset.LocLeftArm, 1, nil)
	shield := item.New(item.KindWeapon, "Shield")
	shield.Weapon = &item.Weapon{
		Damage: "sb+1", AttackType: item.AttackMelee, Group: "parry",
		Qualities: map[item.Quality]int{item.QualityShield: 2},
	}
	shield.Equipped = true
	def.Possessions = append(def.Possessions, shield)
	defPrep := f.prepare(t, def)

	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AP)
	assert.Equal(t, 2, report.Shield)
	assert.Equal(t, 2, report.Net, "10 less TB 4, doubled AP 2, and shield 2")
}

func TestApplyDamage_PartialBypassedOnEvenRoll(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	armourAt(def, ruleset.LocRightArm, 3, func(a *item.Armour) { a.Partial = true })
	defPrep := f.prepare(t, def)

	// Roll 24 is even and reverses to 42, the right arm.
	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 24), def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 0, report.AP)
	assert.Equal(t, 6, report.Net)
}

func TestApplyDamage_Penetrating(t *testing.T) {
	t.Run("metal armour keeps one point less", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		atk, sword := attacker(t, f)
		sword.Weapon.Qualities = map[item.Quality]int{item.QualityPenetrating: 0}
		def := defender(t, f)
		armourAt(def, ruleset.LocLeftArm, 3, func(a *item.Armour) { a.Metal = true })
		defPrep := f.prepare(t, def)

		report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
		require.NoError(t, err)
		assert.Equal(t, 2, report.AP)
	})

	t.Run("non-metal armour is ignored entirely", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		atk, sword := attacker(t, f)
		sword.Weapon.Qualities = map[item.Quality]int{item.QualityPenetrating: 0}
		def := defender(t, f)
		armourAt(def, ruleset.LocLeftArm, 3, nil)
		defPrep := f.prepare(t, def)

		report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
		require.NoError(t, err)
		assert.Equal(t, 0, report.AP)
	})
}

func TestApplyDamage_ImpenetrableNullifiesCritOnOddRoll(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	armourAt(def, ruleset.LocRightArm, 2, func(a *item.Armour) { a.Impenetrable = true })
	defPrep := f.prepare(t, def)

	// Roll 33: a critical, odd, reversed to the right arm.
	res := f.attack(t, atk, sword.ID, 33)
	require.True(t, res.Critical)

	report, err := f.proc.ApplyDamage(context.Background(), res, def, defPrep)
	require.NoError(t, err)
	assert.True(t, report.CritNullified)
	assert.False(t, report.Critical)
	assert.Equal(t, 0, report.CritModifier)
	assert.Zero(t, def.CriticalWounds.Value)
}

func TestApplyDamage_ZeroedWoundsCritical(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	def.Wounds.Value = 6
	defPrep := f.prepare(t, def)

	// Roll 21 is no double; the net 6 lands the defender on exactly 0.
	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	require.Equal(t, 0, report.WoundsRemaining)
	require.Equal(t, 0, report.Overkill)
	assert.True(t, report.Critical, "emptying the wound pool is a critical")
	assert.Equal(t, -20, report.CritModifier, "overkill short of TB reduces the table")
	assert.Equal(t, 1, def.CriticalWounds.Value)
}

func TestApplyDamage_ImpenetrableStopsZeroedWoundsCritical(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	armourAt(def, ruleset.LocRightArm, 2, func(a *item.Armour) { a.Impenetrable = true })
	def.Wounds.Value = 1
	defPrep := f.prepare(t, def)

	// Roll 33: critical, odd, right arm. Damage 9 less TB 4 and AP 2 is 3.
	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 33), def, defPrep)
	require.NoError(t, err)
	require.Equal(t, 2, report.Overkill)
	assert.True(t, report.CritNullified)
	assert.False(t, report.Critical, "nullification holds even through overkill")
	assert.Equal(t, 0, report.CritModifier)
	assert.Zero(t, def.CriticalWounds.Value)
}

func TestApplyDamage_DangerousCrits(t *testing.T) {
	t.Run("overkill below TB flattens to -20", func(t *testing.T) {
		f := newFixture(t, config.Options{DangerousCrits: true, DangerousCritsMod: 10})
		atk, sword := attacker(t, f)
		def := defender(t, f)
		def.Wounds.Value = 2
		defPrep := f.prepare(t, def)

		// Net 6 against 2 wounds: overkill 4 equals TB, scaled offset 0.
		// Drop wounds to 1 for overkill 5.
		def.Wounds.Value = 1
		report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
		require.NoError(t, err)
		require.Equal(t, 5, report.Overkill)
		assert.Equal(t, 10, report.CritModifier, "(5 - TB 4) x 10")
	})

	t.Run("small overkill reduces the table by 20", func(t *testing.T) {
		f := newFixture(t, config.Options{DangerousCrits: true, DangerousCritsMod: 10})
		atk, sword := attacker(t, f)
		def := defender(t, f)
		def.Wounds.Value = 4
		defPrep := f.prepare(t, def)

		report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
		require.NoError(t, err)
		require.Equal(t, 2, report.Overkill)
		assert.Equal(t, -20, report.CritModifier)
	})
}

func TestApplyDamage_WardSave(t *testing.T) {
	f := newFixture(t, config.Options{})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	ward := item.New(item.KindTrait, "Ward")
	ward.Trait = &item.Trait{Specification: "9"}
	def.Possessions = append(def.Possessions, ward)
	defPrep := f.prepare(t, def)

	f.roller.die = 9
	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.True(t, report.Saved)
	assert.Equal(t, "Ward", report.SaveTrait)
	assert.Equal(t, 12, def.Wounds.Value, "saved damage never lands")

	f.roller.die = 3
	report, err = f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.False(t, report.Saved)
	assert.Equal(t, 6, def.Wounds.Value, "10 less toughness bonus 4 off 12 wounds")
}

func TestApplyDamage_HookCanIgnoreTB(t *testing.T) {
	f := newFixture(t, config.Options{})
	f.hooks.Register(hook.PreTakeDamage, "sunder", func(p any) error {
		*p.(*consequence.DamagePayload).IgnoreTB = true
		return nil
	})
	atk, sword := attacker(t, f)
	def := defender(t, f)
	defPrep := f.prepare(t, def)

	report, err := f.proc.ApplyDamage(context.Background(), f.attack(t, atk, sword.ID, 21), def, defPrep)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TB)
	assert.Equal(t, 10, report.Net)
}

func extendedActor(t *testing.T, f *fixture, ext *item.ExtendedTest) (*character.Character, *item.Possession) {
	t.Helper()
	c := character.New("Scholar")
	c.Characteristics["ws"].Initial = 40
	tracker := item.New(item.KindExtendedTest, "Research")
	tracker.Extended = ext
	c.Possessions = append(c.Possessions, tracker)
	require.NoError(t, f.store.Put(context.Background(), c))
	return c, tracker
}

func (f *fixture) extendedResult(t *testing.T, c *character.Character, trackerID string, rolled int) *roll.Result {
	t.Helper()
	prep := f.prepare(t, c)
	spec, err := f.builder.Characteristic(c, prep, "ws", roll.Context{ExtendedTestID: trackerID})
	require.NoError(t, err)
	res, err := f.resolver.Resolve(spec, rolled)
	require.NoError(t, err)
	return res
}

func TestExtendedProgress(t *testing.T) {
	f := newFixture(t, config.Options{})
	c, tracker := extendedActor(t, f, &item.ExtendedTest{Target: 5, Completion: item.CompletionReset})

	report, err := f.proc.ExtendedProgress(context.Background(), f.extendedResult(t, c, tracker.ID, 11))
	require.NoError(t, err)
	assert.False(t, report.Completed)
	assert.Equal(t, 3, report.Current, "SL +3 banked")

	report, err = f.proc.ExtendedProgress(context.Background(), f.extendedResult(t, c, tracker.ID, 25))
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.Equal(t, 0, report.Current, "reset policy zeroes progress")
	assert.False(t, report.Removed)
}

func TestExtendedProgress_SLZeroHouseRule(t *testing.T) {
	f := newFixture(t, config.Options{ExtendedSL0: true})
	c, tracker := extendedActor(t, f, &item.ExtendedTest{
		Target: 5, Current: 2, FailingDecreases: true, Completion: item.CompletionNone,
	})

	// Roll 45 against 40: failure at SL 0, house rule counts it as -1.
	report, err := f.proc.ExtendedProgress(context.Background(), f.extendedResult(t, c, tracker.ID, 45))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Current)
}

func TestExtendedProgress_RemovePolicy(t *testing.T) {
	f := newFixture(t, config.Options{})
	c, tracker := extendedActor(t, f, &item.ExtendedTest{Target: 2, Completion: item.CompletionRemove})

	report, err := f.proc.ExtendedProgress(context.Background(), f.extendedResult(t, c, tracker.ID, 21))
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.True(t, report.Removed)
	assert.Nil(t, c.Possession(tracker.ID))
}

func TestExtendedProgress_ReloadArmsWeapon(t *testing.T) {
	f := newFixture(t, config.Options{})
	c := character.New("Marksman")
	c.Characteristics["ws"].Initial = 40
	crossbow := item.New(item.KindWeapon, "Crossbow")
	crossbow.Weapon = &item.Weapon{Damage: "9", AttackType: item.AttackRanged, Range: 60, Loading: true}
	tracker := item.New(item.KindExtendedTest, "Reload: Crossbow")
	tracker.Extended = &item.ExtendedTest{Target: 1, Completion: item.CompletionRemove, ReloadWeaponID: crossbow.ID}
	c.Possessions = append(c.Possessions, crossbow, tracker)
	require.NoError(t, f.store.Put(context.Background(), c))

	report, err := f.proc.ExtendedProgress(context.Background(), f.extendedResult(t, c, tracker.ID, 21))
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.True(t, report.WeaponLoaded)
	assert.True(t, report.Removed)
	assert.True(t, crossbow.Weapon.Loaded)
	assert.Nil(t, c.Possession(tracker.ID))
}

func incomeActor(t *testing.T, f *fixture, tier ruleset.StatusTier, standing int) *character.Character {
	t.Helper()
	c := character.New("Merchant")
	c.Characteristics["fel"].Initial = 50
	career := item.New(item.KindCareer, "Merchant")
	career.Career = &item.Career{Tier: tier, Standing: standing, Current: true}
	c.Possessions = append(c.Possessions, career)
	require.NoError(t, f.store.Put(context.Background(), c))
	return c
}

func (f *fixture) incomeResult(t *testing.T, c *character.Character, ctx roll.Context, rolled int) *roll.Result {
	t.Helper()
	prep := f.prepare(t, c)
	spec, err := f.builder.Income(c, prep, "", ctx)
	require.NoError(t, err)
	res, err := f.resolver.Resolve(spec, rolled)
	require.NoError(t, err)
	return res
}

func TestIncome(t *testing.T) {
	t.Run("silver success pays d10 per standing", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		f.roller.die = 5
		c := incomeActor(t, f, ruleset.TierSilver, 3)

		// fel 50 at average difficulty gives target 70.
		report, err := f.proc.Income(context.Background(), f.incomeResult(t, c, roll.Context{}, 41))
		require.NoError(t, err)
		assert.Equal(t, "Silver Shilling", report.Denomination)
		assert.Equal(t, 15, report.Amount, "three dice of 5")

		var shillings *item.Possession
		for _, poss := range c.Possessions {
			if poss.Name == "Silver Shilling" {
				shillings = poss
			}
		}
		require.NotNil(t, shillings)
		assert.Equal(t, 15, shillings.Quantity)
	})

	t.Run("near miss pays half", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		f.roller.die = 5
		c := incomeActor(t, f, ruleset.TierSilver, 3)

		report, err := f.proc.Income(context.Background(), f.incomeResult(t, c, roll.Context{}, 95))
		require.NoError(t, err)
		assert.True(t, report.Halved)
		assert.Equal(t, 7, report.Amount, "15 halved rounds down")
	})

	t.Run("bad failure pays nothing", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := incomeActor(t, f, ruleset.TierSilver, 3)

		report, err := f.proc.Income(context.Background(), f.incomeResult(t, c, roll.Context{Modify: -40}, 96))
		require.NoError(t, err)
		assert.Equal(t, 0, report.Amount)
	})

	t.Run("gold pays standing flat", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := incomeActor(t, f, ruleset.TierGold, 2)

		report, err := f.proc.Income(context.Background(), f.incomeResult(t, c, roll.Context{}, 41))
		require.NoError(t, err)
		assert.Equal(t, "Gold Crown", report.Denomination)
		assert.Equal(t, 2, report.Amount)
	})
}

func corruptionActor(t *testing.T, f *fixture) *character.Character {
	t.Helper()
	c := character.New("Witch Hunter")
	c.Characteristics["t"].Initial = 35
	c.Characteristics["wp"].Initial = 30
	require.NoError(t, f.store.Put(context.Background(), c))
	return c
}

func (f *fixture) corruptionResult(t *testing.T, c *character.Character, strength ruleset.CorruptionStrength, rolled int) *roll.Result {
	t.Helper()
	prep := f.prepare(t, c)
	spec, err := f.builder.Corruption(c, prep, "Cool", strength, roll.Context{})
	require.NoError(t, err)
	res, err := f.resolver.Resolve(spec, rolled)
	require.NoError(t, err)
	return res
}

func TestCorruption(t *testing.T) {
	t.Run("minor failure gains one", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := corruptionActor(t, f)
		prep := f.prepare(t, c)

		report, err := f.proc.Corruption(context.Background(), f.corruptionResult(t, c, ruleset.CorruptionMinor, 88), prep)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Delta)
		assert.Equal(t, 1, c.Corruption)
		assert.False(t, report.NeedsMutationTest)
	})

	t.Run("moderate narrow success still gains one", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := corruptionActor(t, f)
		prep := f.prepare(t, c)

		// Cool 30: roll 25 succeeds at SL 1.
		report, err := f.proc.Corruption(context.Background(), f.corruptionResult(t, c, ruleset.CorruptionModerate, 25), prep)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Delta)
	})

	t.Run("reroll subtracts the previous gain", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := corruptionActor(t, f)
		prep := f.prepare(t, c)

		c.Fortune = character.Pool{Value: 1, Max: 1}
		first := f.corruptionResult(t, c, ruleset.CorruptionModerate, 88)
		report, err := f.proc.Corruption(context.Background(), first, prep)
		require.NoError(t, err)
		require.Equal(t, 2, report.Delta)
		require.Equal(t, 2, c.Corruption)

		// Reroll to a clean success at SL 2: gain 0, refund the 2.
		second, err := f.resolver.Reroll(first, 10)
		require.NoError(t, err)
		report, err = f.proc.Corruption(context.Background(), second, prep)
		require.NoError(t, err)
		assert.Equal(t, -2, report.Delta)
		assert.Equal(t, 0, c.Corruption)
	})

	t.Run("crossing the threshold calls for a mutation test", func(t *testing.T) {
		f := newFixture(t, config.Options{})
		c := corruptionActor(t, f)
		c.Corruption = 6
		prep := f.prepare(t, c)
		require.Equal(t, 6, prep.CorruptionMax, "tb 3 + wpb 3")

		report, err := f.proc.Corruption(context.Background(), f.corruptionResult(t, c, ruleset.CorruptionMinor, 88), prep)
		require.NoError(t, err)
		assert.True(t, report.NeedsMutationTest)
		assert.NotEmpty(t, f.notifier.messages)
	})
}

func TestMutation(t *testing.T) {
	f := newFixture(t, config.Options{})
	c := corruptionActor(t, f)
	c.Corruption = 7
	prep := f.prepare(t, c)

	spec, err := f.builder.Mutation(c, prep, roll.Context{})
	require.NoError(t, err)

	// Endurance on t 35: roll 88 fails.
	res, err := f.resolver.Resolve(spec, 88)
	require.NoError(t, err)
	report, err := f.proc.Mutation(context.Background(), res)
	require.NoError(t, err)
	assert.True(t, report.Mutated)
	assert.Equal(t, 3, report.CorruptionRemoved, "willpower bonus worth")
	assert.Equal(t, 4, c.Corruption)

	// A success leaves everything alone.
	res, err = f.resolver.Resolve(spec, 10)
	require.NoError(t, err)
	report, err = f.proc.Mutation(context.Background(), res)
	require.NoError(t, err)
	assert.False(t, report.Mutated)
	assert.Equal(t, 4, c.Corruption)
}
