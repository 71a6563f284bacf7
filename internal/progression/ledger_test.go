package progression

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyXPScenario(t *testing.T) {
	c := NewCharacter()

	c, err := ApplyXP(c, Grant{Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 250, c.XP)
	assert.Equal(t, 250, c.TotalXP)

	c, err = ApplyXP(c, Grant{Amount: 150})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 0, c.XP)
	assert.Equal(t, 400, c.TotalXP)
}

func TestApplyXPRolloverEachLevel(t *testing.T) {
	for level := 1; level <= 50; level++ {
		c := NewCharacter()
		c.Level = level
		c.TotalXP = XPRequiredForLevel(level)

		got, err := ApplyXP(c, Grant{Amount: XPRangeForLevel(level)})
		require.NoError(t, err)
		assert.Equal(t, level+1, got.Level, "from level %d", level)
		assert.Equal(t, 0, got.XP, "from level %d", level)
	}
}

func TestApplyXPMultiLevelJump(t *testing.T) {
	c, err := ApplyXP(NewCharacter(), Grant{Amount: 2_500})
	require.NoError(t, err)

	want, err := LevelForTotalXP(2_500)
	require.NoError(t, err)
	assert.Equal(t, want, c.Level)
	assert.Equal(t, 2_500-XPRequiredForLevel(want), c.XP)
	require.NoError(t, c.Validate())
}

func TestApplyXPMonotonic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	c := NewCharacter()
	sum := 0
	for i := 0; i < 500; i++ {
		amount := 1 + r.IntN(900)
		next, err := ApplyXP(c, Grant{Amount: amount, Attribute: AllAttributes[r.IntN(len(AllAttributes))]})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next.TotalXP, c.TotalXP)
		assert.GreaterOrEqual(t, next.Level, c.Level)
		require.NoError(t, next.Validate())
		sum += amount
		c = next
	}
	assert.Equal(t, sum, c.TotalXP)
}

func TestApplyXPAttributeIncrementsByOne(t *testing.T) {
	c, err := ApplyXP(NewCharacter(), Grant{Amount: 480, Attribute: AttributeBody})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Attributes[AttributeBody])
	assert.Equal(t, 0, c.Attributes[AttributeMind])
}

func TestApplyXPRejectsInvalid(t *testing.T) {
	c := NewCharacter()
	for _, g := range []Grant{{Amount: 0}, {Amount: -5}, {Amount: 10, Attribute: "Luck"}} {
		got, err := ApplyXP(c, g)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("grant %+v: expected ErrInvalidArgument, got %v", g, err)
		}
		if diff := cmp.Diff(c, got); diff != "" {
			t.Fatalf("state changed on rejected grant (-want +got):\n%s", diff)
		}
	}
}

func TestApplyXPDoesNotAliasInput(t *testing.T) {
	c := NewCharacter()
	_, err := ApplyXP(c, Grant{Amount: 10, Attribute: AttributeMind})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Attributes[AttributeMind])
}

func TestUndoStack(t *testing.T) {
	var u UndoStack
	_, ok := u.Pop()
	assert.False(t, ok)

	a := NewCharacter()
	b, _ := ApplyXP(a, Grant{Amount: 100, Attribute: AttributeMind})
	u.Push(a)
	u.Push(b)
	assert.Equal(t, 2, u.Len())

	got, ok := u.Pop()
	require.True(t, ok)
	assert.Equal(t, b.TotalXP, got.TotalXP)
	got, ok = u.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, got.TotalXP)

	u.Push(a)
	u.Clear()
	assert.Equal(t, 0, u.Len())
}

func TestScaleXPIsCommutative(t *testing.T) {
	assert.Equal(t, ScaleXP(100, 1.1, 1.2), ScaleXP(100, 1.2, 1.1))
	assert.Equal(t, 132, ScaleXP(100, 1.1, 1.2))
	assert.Equal(t, 100, ScaleXP(100))
}

func TestMultipliers(t *testing.T) {
	tree := MustDefaultRules(nil).Talents
	c := NewCharacter()
	c.Traits = []Trait{TraitDisciplined, TraitFocused}
	c.PlayerClass = ClassScholar
	c.UnlockedTalents = []string{"awakening", "scholar-focus"}

	got := Multipliers(c, tree, GrantContext{Attribute: AttributeMind, Streak: 3})
	assert.ElementsMatch(t, []float64{1.10, 1.20, 1.10, 1.05, 1.10}, got)

	got = Multipliers(c, tree, GrantContext{Attribute: AttributeBody, Streak: 2})
	assert.Equal(t, []float64{1.05}, got)
}
