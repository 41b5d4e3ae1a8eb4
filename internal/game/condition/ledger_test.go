package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldworld-vtt/grimcore/internal/game/condition"
)

func TestLedger_AddNumbered(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), nil)

	n, err := l.Add("fatigued", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = l.Add("fatigued", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLedger_AddBinaryClampsToOne(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), nil)

	n, err := l.Add("surprised", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLedger_UnknownCondition(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), nil)
	_, err := l.Add("petrified", 1)
	assert.Error(t, err)
	_, err = l.Remove("petrified", 1)
	assert.Error(t, err)
}

func TestLedger_UnconsciousKnocksProne(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), nil)
	_, err := l.Add("unconscious", 1)
	require.NoError(t, err)
	assert.True(t, l.Has("prone"))
}

func TestLedger_RemoveLeavesFatigue(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), map[string]int{"bleeding": 2})

	n, err := l.Remove("bleeding", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, l.Has("fatigued"), "fatigue only on full clear")

	n, err = l.Remove("bleeding", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, l.Rating("fatigued"))
}

func TestLedger_RemoveFloorsAtZero(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), map[string]int{"stunned": 1})

	n, err := l.Remove("stunned", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, l.Has("stunned"))
	assert.True(t, l.Has("fatigued"))
}

func TestLedger_RemoveAbsentIsNoop(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), nil)
	n, err := l.Remove("bleeding", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, l.Has("fatigued"))
}

func TestLedger_Contributions(t *testing.T) {
	l := condition.NewLedger(condition.Defaults(), map[string]int{
		"fatigued": 2,
		"prone":    1,
		"bleeding": 3,
	})

	contribs := l.Contributions()
	require.Len(t, contribs, 2, "bleeding has no test modifier")

	assert.Equal(t, "Fatigued", contribs[0].Reason)
	assert.Equal(t, -20, contribs[0].Modifier, "numbered modifier scales with rating")
	assert.Equal(t, "Prone", contribs[1].Reason)
	assert.Equal(t, -20, contribs[1].Modifier)
}
