package progression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPRequiredForLevel(t *testing.T) {
	assert.Equal(t, 0, XPRequiredForLevel(1))
	assert.Equal(t, 400, XPRequiredForLevel(2))
	assert.Equal(t, 900, XPRequiredForLevel(3))
	assert.Equal(t, 10_000, XPRequiredForLevel(10))

	for l := 1; l < 100; l++ {
		assert.Less(t, XPRequiredForLevel(l), XPRequiredForLevel(l+1), "level %d", l)
	}
}

func TestLevelForTotalXP(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 1},
		{250, 1},
		{399, 1},
		{400, 2},
		{899, 2},
		{900, 3},
		{10_000, 10},
		{10_099, 10},
	}
	for _, tc := range cases {
		got, err := LevelForTotalXP(tc.total)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "total %d", tc.total)
	}
}

func TestLevelForTotalXPRejectsNegative(t *testing.T) {
	_, err := LevelForTotalXP(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLevelForTotalXPCapsAtMaxLevel(t *testing.T) {
	got, err := LevelForTotalXP(XPRequiredForLevel(MaxLevel) * 4)
	require.NoError(t, err)
	assert.Equal(t, MaxLevel, got)
}

func TestProgressForTotalXP(t *testing.T) {
	p, err := ProgressForTotalXP(0)
	require.NoError(t, err)
	assert.Equal(t, LevelProgress{Level: 1, XPIntoLevel: 0, XPForLevel: 400, XPToNext: 400, Percent: 0}, p)

	p, err = ProgressForTotalXP(650)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 250, p.XPIntoLevel)
	assert.Equal(t, 500, p.XPForLevel)
	assert.InDelta(t, 50.0, p.Percent, 0.0001)

	for total := 0; total < 20_000; total += 37 {
		p, err := ProgressForTotalXP(total)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Percent, 0.0)
		assert.Less(t, p.Percent, 100.0)
	}
}
