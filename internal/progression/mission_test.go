package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC) // a Wednesday

func TestDifficultyForXP(t *testing.T) {
	cases := map[int]Difficulty{
		1:   DifficultyEasy,
		49:  DifficultyEasy,
		50:  DifficultyMedium,
		99:  DifficultyMedium,
		100: DifficultyHard,
		199: DifficultyHard,
		200: DifficultyEpic,
		500: DifficultyEpic,
	}
	for xp, want := range cases {
		assert.Equal(t, want, DifficultyForXP(xp), "xp %d", xp)
	}
}

func TestNewMissionClampsXP(t *testing.T) {
	m, err := NewMission(MissionInput{Title: " Run ", XPValue: 9000, Attribute: AttributeBody}, refNow)
	require.NoError(t, err)
	assert.Equal(t, "Run", m.Title)
	assert.Equal(t, MaxMissionXP, m.XPValue)
	assert.Equal(t, MissionPending, m.Status)
	assert.NotEmpty(t, m.ID)

	m, err = NewMission(MissionInput{Title: "Nap", XPValue: -3, Attribute: AttributeBody}, refNow)
	require.NoError(t, err)
	assert.Equal(t, MinMissionXP, m.XPValue)
}

func TestNewMissionRejectsMalformed(t *testing.T) {
	for _, in := range []MissionInput{
		{Title: "", XPValue: 10, Attribute: AttributeMind},
		{Title: "x", XPValue: 10, Attribute: "Luck"},
	} {
		if _, err := NewMission(in, refNow); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("input %+v: expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestCompleteMissionOnce(t *testing.T) {
	m, err := NewMission(MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}, refNow)
	require.NoError(t, err)

	var history History
	done, entry, err := CompleteMission(m, OutcomeSuccess, refNow)
	require.NoError(t, err)
	history = history.Append(entry)
	assert.Equal(t, MissionCompleted, done.Status)
	assert.True(t, entry.Success)
	assert.Equal(t, "m1", entry.MissionID)

	again, _, err := CompleteMission(done, OutcomeSuccess, refNow.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	assert.Equal(t, done, again)
	assert.Len(t, history, 1)
}

func TestCompleteMissionFailure(t *testing.T) {
	m, _ := NewMission(MissionInput{Title: "Gym", XPValue: 80, Attribute: AttributeBody}, refNow)
	done, entry, err := CompleteMission(m, OutcomeFail, refNow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, done.Outcome)
	assert.False(t, entry.Success)

	_, _, err = CompleteMission(m, "maybe", refNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHistoryQueries(t *testing.T) {
	day := func(offset, hour int) time.Time {
		return time.Date(2026, time.March, 11+offset, hour, 0, 0, 0, time.UTC)
	}
	h := History{
		{MissionID: "a", XPValue: 50, Success: true, Timestamp: day(0, 9)},
		{MissionID: "b", XPValue: 70, Success: true, Timestamp: day(0, 20)},
		{MissionID: "c", XPValue: 90, Success: false, Timestamp: day(0, 21)},
		{MissionID: "d", XPValue: 30, Success: true, Timestamp: day(-1, 8)},
		{MissionID: "e", XPValue: 10, Success: true, Timestamp: day(-6, 8)},
		{MissionID: "f", XPValue: 99, Success: true, Timestamp: day(-7, 8)},
	}

	assert.Equal(t, 120, h.XPEarnedOn(refNow))
	assert.Equal(t, 2, h.CompletedCountOn(refNow))
	assert.Equal(t, [7]int{10, 0, 0, 0, 0, 30, 120}, h.WeeklySeries(refNow))
	assert.Equal(t, 5, h.SuccessCount())
	assert.Equal(t, 1, h.FailureCount())
	assert.True(t, h.Contains("c"))
}

func TestHistoryUsesCallerLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 12th is still the 11th in UTC-3.
	h := History{{MissionID: "a", XPValue: 40, Success: true, Timestamp: time.Date(2026, time.March, 12, 1, 0, 0, 0, time.UTC)}}

	assert.Equal(t, 40, h.XPEarnedOn(time.Date(2026, time.March, 11, 22, 0, 0, 0, saoPaulo)))
	assert.Equal(t, 0, h.XPEarnedOn(time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)))
}
