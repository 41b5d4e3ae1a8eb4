package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/condition"
	"github.com/oldworld-vtt/grimcore/internal/game/engine"
	"github.com/oldworld-vtt/grimcore/internal/game/equipment"
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

type cancellingDialog struct{}

func (cancellingDialog) Confirm(context.Context, *roll.Specification) error {
	return host.ErrCancelled
}

func newEngine(t *testing.T, opts config.Options, roller *fixedRoller) (*engine.Engine, *host.MemStore) {
	t.Helper()
	store := host.NewMemStore()
	cfg := config.Default()
	cfg.Options = opts
	e := engine.New(cfg, ruleset.Default(), condition.Defaults(), engine.Deps{
		Store:    store,
		Dialog:   host.NopDialog{},
		Notifier: host.NopNotifier{},
		Audio:    host.NopAudio{},
	}, roller, zaptest.NewLogger(t))
	return e, store
}

func storedActor(t *testing.T, store *host.MemStore) *character.Character {
	t.Helper()
	c := character.New("Gunnar")
	c.Characteristics["ws"].Initial = 40
	c.Characteristics["bs"].Initial = 40
	c.Characteristics["s"].Initial = 40
	c.Characteristics["t"].Initial = 35
	c.Characteristics["wp"].Initial = 30
	c.Characteristics["fel"].Initial = 40
	require.NoError(t, store.Put(context.Background(), c))
	return c
}

func TestPrepareCharacter_WritesBackWounds(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 50, die: 5})
	c := storedActor(t, store)
	c.Wounds = character.Pool{Value: 20, Max: 20}

	prep, err := e.PrepareCharacter(ctx, c.ID)
	require.NoError(t, err)
	// sb 4, tb 3, wpb 3: average size wounds 13.
	assert.Equal(t, 13, prep.WoundsMax)
	assert.Equal(t, 13, c.Wounds.Max)
	assert.Equal(t, 13, c.Wounds.Value, "current wounds clamp to the new max")

	c.Flags.AutoCalcWounds = false
	c.Wounds = character.Pool{Value: 20, Max: 20}
	_, err = e.PrepareCharacter(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Wounds.Max, "manual wounds are left alone")
}

func TestBuildTest_DialogCancellation(t *testing.T) {
	ctx := context.Background()
	store := host.NewMemStore()
	e := engine.New(config.Default(), ruleset.Default(), condition.Defaults(), engine.Deps{
		Store:    store,
		Dialog:   cancellingDialog{},
		Notifier: host.NopNotifier{},
		Audio:    host.NopAudio{},
	}, &fixedRoller{percentile: 50}, zaptest.NewLogger(t))
	c := storedActor(t, store)

	_, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestCharacteristic, Ref: "ws"})
	assert.ErrorIs(t, err, host.ErrCancelled)
}

func TestBuildTest_UnknownKindAndMissingActor(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 50})
	c := storedActor(t, store)

	_, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: "juggling"})
	assert.Error(t, err)

	_, err = e.BuildTest(ctx, engine.TestRequest{ActorID: "missing", Kind: engine.TestCharacteristic, Ref: "ws"})
	assert.ErrorIs(t, err, host.ErrNotFound)
}

func TestResolveTest_ExpendsAmmo(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 30, die: 5})
	c := storedActor(t, store)

	bow := item.New(item.KindWeapon, "Bow")
	bow.Weapon = &item.Weapon{
		Damage: "4", AttackType: item.AttackRanged, Range: 50,
		ConsumesAmmo: true, AmmoGroup: "bow",
	}
	arrows := item.New(item.KindAmmunition, "Arrows")
	arrows.Ammunition = &item.Ammunition{Group: "bow"}
	arrows.Quantity = 2
	c.Possessions = append(c.Possessions, bow, arrows)

	spec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestWeapon, Ref: bow.ID})
	require.NoError(t, err)

	res, err := e.ResolveTest(ctx, spec)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, arrows.Quantity)
}

func TestResolveTest_AmmoRaceIsCaught(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 30})
	c := storedActor(t, store)

	bow := item.New(item.KindWeapon, "Bow")
	bow.Weapon = &item.Weapon{
		Damage: "4", AttackType: item.AttackRanged, Range: 50,
		ConsumesAmmo: true, AmmoGroup: "bow",
	}
	arrows := item.New(item.KindAmmunition, "Arrows")
	arrows.Ammunition = &item.Ammunition{Group: "bow"}
	arrows.Quantity = 1
	c.Possessions = append(c.Possessions, bow, arrows)

	spec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestWeapon, Ref: bow.ID})
	require.NoError(t, err)

	// The quiver empties between confirmation and the shot.
	arrows.Quantity = 0
	_, err = e.ResolveTest(ctx, spec)
	assert.ErrorIs(t, err, equipment.ErrNoAmmo)
}

func TestResolveTest_UnloadsLoadingWeapon(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 30})
	c := storedActor(t, store)

	crossbow := item.New(item.KindWeapon, "Crossbow")
	crossbow.Weapon = &item.Weapon{
		Damage: "9", AttackType: item.AttackRanged, Range: 60,
		Loading: true, Loaded: true,
	}
	c.Possessions = append(c.Possessions, crossbow)

	spec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestWeapon, Ref: crossbow.ID})
	require.NoError(t, err)
	_, err = e.ResolveTest(ctx, spec)
	require.NoError(t, err)
	assert.False(t, crossbow.Weapon.Loaded, "firing spends the load")
}

func TestStartReload_RoundTrip(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 20})
	c := storedActor(t, store)

	crossbow := item.New(item.KindWeapon, "Crossbow")
	crossbow.Weapon = &item.Weapon{
		Damage: "9", AttackType: item.AttackRanged, Range: 60,
		Loading: true, Loaded: false,
		Flaws: map[item.Flaw]int{item.FlawReload: 1},
	}
	c.Possessions = append(c.Possessions, crossbow)

	trackerID, err := e.StartReload(ctx, c.ID, crossbow.ID)
	require.NoError(t, err)

	again, err := e.StartReload(ctx, c.ID, crossbow.ID)
	require.NoError(t, err)
	assert.Equal(t, trackerID, again, "a second start reuses the tracker")

	spec, err := e.BuildTest(ctx, engine.TestRequest{
		ActorID: c.ID, Kind: engine.TestCharacteristic, Ref: "bs",
		Context: roll.Context{ExtendedTestID: trackerID},
	})
	require.NoError(t, err)
	res, err := e.ResolveTest(ctx, spec)
	require.NoError(t, err)

	out, err := e.ApplyConsequences(ctx, res, "")
	require.NoError(t, err)
	require.NotNil(t, out.Extended)
	assert.True(t, out.Extended.Completed)
	assert.True(t, crossbow.Weapon.Loaded, "completed reload arms the weapon")
	assert.Nil(t, c.Possession(trackerID), "completed tracker is removed")
}

func TestApplyConsequences_Damage(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 21, die: 5})
	atk := storedActor(t, store)
	sword := item.New(item.KindWeapon, "Sword")
	sword.Weapon = &item.Weapon{Damage: "sb+4", AttackType: item.AttackMelee, Group: "basic"}
	atk.Possessions = append(atk.Possessions, sword)

	def := character.New("Defender")
	def.Characteristics["t"].Initial = 40
	def.Wounds = character.Pool{Value: 12, Max: 12}
	require.NoError(t, store.Put(ctx, def))

	spec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: atk.ID, Kind: engine.TestWeapon, Ref: sword.ID})
	require.NoError(t, err)
	res, err := e.ResolveTest(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, 10, res.Damage)

	out, err := e.ApplyConsequences(ctx, res, def.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Damage)
	assert.Equal(t, 6, out.Damage.Net, "10 less TB 4, no armour")
	assert.Equal(t, 6, def.Wounds.Value)
}

func TestApplyConsequences_Income(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 30, die: 6})
	c := storedActor(t, store)
	career := item.New(item.KindCareer, "Soldier")
	career.Career = &item.Career{Tier: ruleset.TierSilver, Standing: 2, Current: true}
	c.Possessions = append(c.Possessions, career)

	spec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestIncome})
	require.NoError(t, err)
	res, err := e.ResolveTest(ctx, spec)
	require.NoError(t, err)

	out, err := e.ApplyConsequences(ctx, res, "")
	require.NoError(t, err)
	require.NotNil(t, out.Income)
	assert.Equal(t, 12, out.Income.Amount, "two dice of 6")
}

func TestApplyConsequences_CorruptionThenMutation(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 88})
	c := storedActor(t, store)
	c.Corruption = 6

	spec, err := e.BuildTest(ctx, engine.TestRequest{
		ActorID: c.ID, Kind: engine.TestCorruption, Ref: "Cool",
		Strength: ruleset.CorruptionMinor,
	})
	require.NoError(t, err)
	res, err := e.ResolveTest(ctx, spec)
	require.NoError(t, err)

	out, err := e.ApplyConsequences(ctx, res, "")
	require.NoError(t, err)
	require.NotNil(t, out.Corruption)
	assert.Equal(t, 7, out.Corruption.Total)
	assert.True(t, out.Corruption.NeedsMutationTest, "tb 3 + wpb 3 threshold crossed")

	mutSpec, err := e.BuildTest(ctx, engine.TestRequest{ActorID: c.ID, Kind: engine.TestMutation})
	require.NoError(t, err)
	mutRes, err := e.ResolveTest(ctx, mutSpec)
	require.NoError(t, err)

	out, err = e.ApplyConsequences(ctx, mutRes, "")
	require.NoError(t, err)
	require.NotNil(t, out.Mutation)
	assert.True(t, out.Mutation.Mutated)
	assert.Equal(t, 4, c.Corruption, "willpower bonus shed with the mutation")
}

func TestConditions(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 50})
	c := storedActor(t, store)

	require.NoError(t, e.AddCondition(ctx, c.ID, "bleeding", 2))
	assert.Equal(t, 2, c.Conditions["bleeding"])

	require.NoError(t, e.RemoveCondition(ctx, c.ID, "bleeding", 2))
	assert.Zero(t, c.Conditions["bleeding"])
	assert.Equal(t, 1, c.Conditions["fatigued"], "clearing bleeding leaves fatigue")

	assert.Error(t, e.AddCondition(ctx, c.ID, "petrified", 1))
}

func TestCreateCharacter(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, config.Options{}, &fixedRoller{percentile: 50})

	c, err := e.CreateCharacter(ctx, "Elsa")
	require.NoError(t, err)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.SkillByName("Dodge"), "starter skills present")
}
