package progression

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) (*Rules, State) {
	t.Helper()
	rules, err := DefaultRules(nil)
	require.NoError(t, err)
	return rules, NewState(rules, NewCharacter(), nil, nil, nil)
}

func mustReduce(t *testing.T, rules *Rules, s State, ev Event) Result {
	t.Helper()
	res, err := Reduce(rules, s, ev, refNow)
	require.NoError(t, err)
	return res
}

func TestReduceCompleteMissionGrantsXPAndReward(t *testing.T) {
	rules, s := newTestState(t)

	res := mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}})
	s = res.State
	require.Len(t, s.Missions, 1)

	res = mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess})
	s = res.State

	assert.Equal(t, 60, res.Awarded)
	require.Len(t, res.Rewards, 1)
	assert.Equal(t, "first-quest", res.Rewards[0].ID)
	assert.Equal(t, 100, res.Rewards[0].XP)

	assert.Equal(t, 160, s.Character.TotalXP)
	assert.Equal(t, 1, s.Character.Level)
	assert.Equal(t, 1, s.Character.Attributes[AttributeMind])
	assert.Equal(t, []string{"first-quest"}, s.Claimed)
	require.Len(t, s.History, 1)
	assert.Equal(t, 60, s.History[0].XPAwarded)
	assert.Equal(t, 1, s.Undo.Len())
}

func TestReduceCompleteTwiceIsNoop(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}}).State
	s = mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess}).State

	res, err := Reduce(rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess}, refNow)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	assert.True(t, res.Noop)
	assert.Len(t, res.State.History, 1)
	if diff := cmp.Diff(s, res.State, cmpopts.IgnoreUnexported(UndoStack{})); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestReduceFailedMissionGrantsNothing(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Gym", XPValue: 80, Attribute: AttributeBody}}).State

	res := mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeFail})
	assert.Zero(t, res.Awarded)
	assert.Zero(t, res.State.Character.TotalXP)
	assert.Empty(t, res.Rewards)
	require.Len(t, res.State.History, 1)
	assert.False(t, res.State.History[0].Success)
	assert.Equal(t, 0, res.State.Undo.Len())
}

func TestReduceUnknownMission(t *testing.T) {
	rules, s := newTestState(t)
	_, err := Reduce(rules, s, CompleteMissionEvent{MissionID: "ghost", Outcome: OutcomeSuccess}, refNow)
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestReduceUndoRestoresCharacterOnly(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}}).State
	s = mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess}).State

	res := mustReduce(t, rules, s, UndoLast{})
	assert.Equal(t, 0, res.State.Character.TotalXP)
	assert.Equal(t, 0, res.State.Character.Attributes[AttributeMind])
	// The ledger and claimed rewards are never rolled back.
	assert.Len(t, res.State.History, 1)
	assert.Equal(t, []string{"first-quest"}, res.State.Claimed)

	_, err := Reduce(rules, res.State, UndoLast{}, refNow)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestReduceUnlockTalent(t *testing.T) {
	rules, s := newTestState(t)

	_, err := Reduce(rules, s, UnlockTalent{TalentID: "awakening"}, refNow)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	s = mustReduce(t, rules, s, GrantXP{Grant: Grant{Amount: 400}}).State
	assert.Equal(t, 2, s.Character.Level)
	assert.Equal(t, 1, s.Character.TalentPoints)

	res := mustReduce(t, rules, s, UnlockTalent{TalentID: "awakening"})
	assert.Equal(t, []string{"awakening"}, res.State.Character.UnlockedTalents)
	assert.Equal(t, 0, res.State.Character.TalentPoints)
	assert.Empty(t, res.NewlyUnlockable)
	require.Len(t, res.Rewards, 1)
	assert.Equal(t, "first-talent", res.Rewards[0].ID)
	assert.Equal(t, 500, res.State.Character.TotalXP)

	_, err = Reduce(rules, res.State, UnlockTalent{TalentID: "awakening"}, refNow)
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
}

func TestReduceAppliesMultipliers(t *testing.T) {
	rules, s := newTestState(t)
	class := ClassScholar
	s = mustReduce(t, rules, s, UpdateProfile{PlayerClass: &class}).State
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Study", XPValue: 100, Attribute: AttributeMind}}).State

	res := mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess})
	assert.Equal(t, 110, res.Awarded)
	assert.Equal(t, 100, res.State.History[0].XPValue)
}

func TestReduceUpdateProfileValidates(t *testing.T) {
	rules, s := newTestState(t)
	name := "  Ada  "
	res := mustReduce(t, rules, s, UpdateProfile{AvatarName: &name, Traits: []Trait{"focused", "focused"}})
	assert.Equal(t, "Ada", res.State.Character.AvatarName)
	assert.Equal(t, []Trait{TraitFocused}, res.State.Character.Traits)

	_, err := Reduce(rules, s, UpdateProfile{Traits: []Trait{"lucky"}}, refNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bad := Class("Necromancer")
	_, err = Reduce(rules, s, UpdateProfile{PlayerClass: &bad}, refNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReduceGenerateMission(t *testing.T) {
	rules, s := newTestState(t)
	res := mustReduce(t, rules, s, GenerateMission{})
	require.NotNil(t, res.Mission)
	assert.True(t, res.Mission.Generated)
	assert.Equal(t, GeneratedXP(0), res.Mission.XPValue)
	assert.Len(t, res.State.Missions, 1)
}

func TestReduceRemoteSnapshotReplacesCharacter(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, GrantXP{Grant: Grant{Amount: 50}}).State
	s.Claimed = []string{"local"}
	require.Equal(t, 1, s.Undo.Len())

	remote := NewCharacter()
	remote.Level = 3
	remote.XP = 1_000 // pending rollover from a hand-edited document
	remote.TotalXP = 1_900

	res := mustReduce(t, rules, s, RemoteSnapshot{Character: remote, Claimed: []string{"remote"}})
	assert.False(t, res.Persist)
	assert.Equal(t, 4, res.State.Character.Level)
	assert.Equal(t, 300, res.State.Character.XP)
	assert.Equal(t, 3, res.State.Character.TalentPoints)
	assert.Equal(t, []string{"local", "remote"}, res.State.Claimed)
	assert.Equal(t, 0, res.State.Undo.Len())
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}}).State
	before := s
	beforeMissions := append([]Mission(nil), s.Missions...)

	_ = mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess})
	assert.Equal(t, beforeMissions, s.Missions)
	assert.Empty(t, s.History)
	assert.Equal(t, before.Character.TotalXP, s.Character.TotalXP)
}

func TestBuildView(t *testing.T) {
	rules, s := newTestState(t)
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m1", Title: "Read", XPValue: 60, Attribute: AttributeMind}}).State
	s = mustReduce(t, rules, s, CompleteMissionEvent{MissionID: "m1", Outcome: OutcomeSuccess}).State
	s = mustReduce(t, rules, s, CreateMission{Input: MissionInput{ID: "m2", Title: "Walk", XPValue: 30, Attribute: AttributeBody}}).State

	v := BuildView(rules, s, refNow)
	assert.Equal(t, 1, v.Progress.Level)
	assert.Equal(t, 160, v.Progress.XPIntoLevel)
	assert.InDelta(t, 40.0, v.Progress.Percent, 0.001)
	assert.Equal(t, 1, v.Streak.Current)
	assert.Equal(t, 5, v.Streak.NextMilestone)
	assert.Equal(t, 60, v.TodayXP)
	assert.Equal(t, 1, v.TodayCompleted)
	assert.Equal(t, 60, v.WeeklySeries[6])
	assert.Equal(t, 60, v.Boss.Damage)
	assert.Equal(t, 1, v.PendingMissions)
	assert.Equal(t, 1, v.UndoDepth)
	assert.Len(t, v.Talents, rules.Talents.Len())
	assert.Equal(t, NodeLocked, v.Talents[0].State)

	unlocked := 0
	for _, a := range v.Achievements {
		if a.Unlocked {
			unlocked++
			assert.Equal(t, "first-quest", a.ID)
		}
	}
	assert.Equal(t, 1, unlocked)
}
