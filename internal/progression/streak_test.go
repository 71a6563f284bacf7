package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func successOn(days ...int) History {
	var h History
	for i, d := range days {
		h = append(h, HistoryEntry{
			MissionID: string(rune('a' + i)),
			XPValue:   10,
			Success:   true,
			Timestamp: refNow.AddDate(0, 0, -d),
		})
	}
	return h
}

func TestCurrentStreakStopsAtGap(t *testing.T) {
	h := successOn(0, 1, 2, 4, 5, 6, 7)
	assert.Equal(t, 3, CurrentStreak(h, refNow, nil))
}

func TestCurrentStreakIgnoresFailures(t *testing.T) {
	h := successOn(1)
	h = append(h, HistoryEntry{MissionID: "x", Success: false, Timestamp: refNow})
	assert.Equal(t, 0, CurrentStreak(h, refNow, nil))
}

func TestCurrentStreakPersistentFloor(t *testing.T) {
	assert.Equal(t, 1, CurrentStreak(nil, refNow, []Trait{TraitPersistent}))
	assert.Equal(t, 0, CurrentStreak(nil, refNow, []Trait{TraitFocused}))
	// The floor is not additive.
	assert.Equal(t, 2, CurrentStreak(successOn(0, 1), refNow, []Trait{TraitPersistent}))
}

func TestCurrentStreakBoundedByLookback(t *testing.T) {
	days := make([]int, 400)
	for i := range days {
		days[i] = i
	}
	assert.Equal(t, StreakLookbackDays, CurrentStreak(successOn(days...), refNow, nil))
}

func TestLongestStreak(t *testing.T) {
	h := successOn(0, 1, 5, 6, 7, 8, 20)
	assert.Equal(t, 4, LongestStreak(h, time.UTC))
	assert.Equal(t, 0, LongestStreak(nil, time.UTC))
}

func TestMilestones(t *testing.T) {
	cases := []struct{ streak, next, remaining int }{
		{0, 5, 5},
		{1, 5, 4},
		{4, 5, 1},
		{5, 10, 5},
		{12, 15, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.next, NextMilestone(tc.streak), "streak %d", tc.streak)
		assert.Equal(t, tc.remaining, RemainingToMilestone(tc.streak), "streak %d", tc.streak)
	}
}

func TestWeeklyBoss(t *testing.T) {
	start := WeekStart(refNow)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), start)

	h := History{
		{MissionID: "a", XPValue: 600, Success: true, Timestamp: start.Add(time.Hour)},
		{MissionID: "b", XPValue: 300, Success: true, Timestamp: refNow},
		{MissionID: "c", XPValue: 500, Success: false, Timestamp: refNow},
		{MissionID: "d", XPValue: 900, Success: true, Timestamp: start.Add(-time.Hour)},
	}
	boss := WeeklyBoss(h, refNow)
	assert.Equal(t, 900, boss.Damage)
	assert.Equal(t, 100, boss.Remaining)
	assert.False(t, boss.Defeated)
	assert.NotEmpty(t, boss.Name)

	h = append(h, HistoryEntry{MissionID: "e", XPValue: 100, Success: true, Timestamp: refNow})
	boss = WeeklyBoss(h, refNow)
	assert.True(t, boss.Defeated)
	assert.Equal(t, 0, boss.Remaining)
	assert.Equal(t, 1, BossesDefeated(h, time.UTC))
}
