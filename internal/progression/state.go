package progression

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// State is the full application state of one character. It is passed explicitly to Reduce
// and never shared between sessions.
type State struct {
	Character Character `json:"character"`
	Missions  []Mission `json:"missions"`
	History   History   `json:"history"`
	Claimed   []string  `json:"claimed_achievements"`
	Undo      UndoStack `json:"-"`
}

// NewState normalizes loaded data into a consistent state. Talent points are recomputed.
func NewState(rules *Rules, c Character, missions []Mission, history History, claimed []string) State {
	s := State{
		Character: c.Normalize(),
		Missions:  append([]Mission(nil), missions...),
		History:   history.Sorted(),
		Claimed:   dedupeSorted(append([]string(nil), claimed...)),
	}
	sort.SliceStable(s.Missions, func(i, j int) bool { return s.Missions[i].CreatedAt.Before(s.Missions[j].CreatedAt) })
	s.Character.TalentPoints = rules.Talents.AvailablePoints(s.Character.Level, s.Character.UnlockedTalents)
	return s
}

// Mission looks up a mission by id.
func (s State) Mission(id string) (Mission, bool) {
	for _, m := range s.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

// Pending returns the missions not yet completed.
func (s State) Pending() []Mission {
	var out []Mission
	for _, m := range s.Missions {
		if m.Status == MissionPending {
			out = append(out, m)
		}
	}
	return out
}

// Event is a discrete state transition request.
type Event interface {
	isEvent()
}

type CreateMission struct{ Input MissionInput }

type GenerateMission struct{}

type CompleteMissionEvent struct {
	MissionID string
	Outcome   Outcome
}

type UnlockTalent struct{ TalentID string }

type GrantXP struct{ Grant Grant }

type UndoLast struct{}

// UpdateProfile changes cosmetic and modifier fields. Nil fields are left untouched.
type UpdateProfile struct {
	AvatarName  *string
	PlayerClass *Class
	Traits      []Trait
}

// RemoteSnapshot replaces the local character with the stored document (last writer wins).
type RemoteSnapshot struct {
	Character Character
	Claimed   []string
}

func (CreateMission) isEvent()        {}
func (GenerateMission) isEvent()      {}
func (CompleteMissionEvent) isEvent() {}
func (UnlockTalent) isEvent()         {}
func (GrantXP) isEvent()              {}
func (UndoLast) isEvent()             {}
func (UpdateProfile) isEvent()        {}
func (RemoteSnapshot) isEvent()       {}

// AchievementReward records a one-time achievement grant.
type AchievementReward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Rarity Rarity `json:"rarity"`
	XP     int    `json:"xp"`
}

// Result describes what a transition did.
type Result struct {
	State State
	// Noop is set when the event was accepted but changed nothing (re-completion).
	Noop bool
	// Mission is the created or completed mission.
	Mission *Mission
	// Entry is the ledger line appended by a completion.
	Entry *HistoryEntry
	// Awarded is the XP granted by the event itself, after multipliers.
	Awarded int
	// LevelsGained counts level-ups caused by the event and its rewards.
	LevelsGained int
	Rewards      []AchievementReward
	// NewlyUnlockable lists talents that became unlockable through an unlock.
	NewlyUnlockable []string
	// Persist is false for transitions that only touch session-local data.
	Persist bool
}

// Reduce applies an event to a state and returns the next state. The input state is never
// mutated. On error the returned result carries the unchanged state.
func Reduce(rules *Rules, s State, ev Event, now time.Time) (Result, error) {
	now = now.In(rules.Location)
	switch e := ev.(type) {
	case CreateMission:
		return reduceCreate(s, e.Input, false, now)
	case GenerateMission:
		m := rules.Generator.Generate(s.Character.Attributes)
		return reduceCreate(s, MissionInput{
			Title:       m.Title,
			Description: m.Description,
			XPValue:     m.XPValue,
			Attribute:   m.Attribute,
		}, true, now)
	case CompleteMissionEvent:
		return reduceComplete(rules, s, e, now)
	case UnlockTalent:
		return reduceUnlock(rules, s, e.TalentID)
	case GrantXP:
		return reduceGrant(rules, s, e.Grant)
	case UndoLast:
		return reduceUndo(rules, s)
	case UpdateProfile:
		return reduceProfile(s, e)
	case RemoteSnapshot:
		return reduceRemote(rules, s, e), nil
	default:
		return Result{State: s}, fmt.Errorf("%w: unsupported event %T", ErrInvalidArgument, ev)
	}
}

func reduceCreate(s State, in MissionInput, generated bool, now time.Time) (Result, error) {
	if in.ID != "" {
		if _, exists := s.Mission(in.ID); exists {
			return Result{State: s}, fmt.Errorf("%w: mission %q already exists", ErrInvalidArgument, in.ID)
		}
	}
	m, err := NewMission(in, now)
	if err != nil {
		return Result{State: s}, err
	}
	m.Generated = generated

	next := s
	next.Missions = append(append([]Mission(nil), s.Missions...), m)
	return Result{State: next, Mission: &m, Persist: true}, nil
}

func reduceComplete(rules *Rules, s State, e CompleteMissionEvent, now time.Time) (Result, error) {
	idx := -1
	for i, m := range s.Missions {
		if m.ID == e.MissionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{State: s}, fmt.Errorf("%w: %q", ErrMissionNotFound, e.MissionID)
	}

	done, entry, err := CompleteMission(s.Missions[idx], e.Outcome, now)
	if errors.Is(err, ErrAlreadyCompleted) || (err == nil && s.History.Contains(done.ID)) {
		m := s.Missions[idx]
		return Result{State: s, Noop: true, Mission: &m}, ErrAlreadyCompleted
	}
	if err != nil {
		return Result{State: s}, err
	}

	next := s
	next.Missions = append([]Mission(nil), s.Missions...)
	next.Missions[idx] = done
	next.History = s.History.Append(entry)

	res := Result{Mission: &done, Persist: true}
	if entry.Success {
		streak := CurrentStreak(next.History, now, s.Character.Traits)
		mults := Multipliers(s.Character, rules.Talents, GrantContext{Attribute: done.Attribute, Streak: streak})
		awarded := ScaleXP(done.XPValue, mults...)
		if awarded < 1 {
			awarded = 1
		}
		c, err := ApplyXP(s.Character, Grant{Amount: awarded, Attribute: done.Attribute})
		if err != nil {
			return Result{State: s}, err
		}
		next.History[len(next.History)-1].XPAwarded = awarded
		next.Undo = s.Undo.pushed(s.Character)
		next.Character = c
		res.Awarded = awarded
	}
	last := next.History[len(next.History)-1]
	res.Entry = &last

	settle(rules, &next, &res, s.Character.Level)
	res.State = next
	return res, nil
}

func reduceUnlock(rules *Rules, s State, id string) (Result, error) {
	c, cascade, err := rules.Talents.Unlock(s.Character, strings.TrimSpace(id))
	if err != nil {
		return Result{State: s}, err
	}
	next := s
	next.Undo = s.Undo.pushed(s.Character)
	next.Character = c
	res := Result{NewlyUnlockable: cascade, Persist: true}
	settle(rules, &next, &res, s.Character.Level)
	res.State = next
	return res, nil
}

func reduceGrant(rules *Rules, s State, g Grant) (Result, error) {
	c, err := ApplyXP(s.Character, g)
	if err != nil {
		return Result{State: s}, err
	}
	next := s
	next.Undo = s.Undo.pushed(s.Character)
	next.Character = c
	res := Result{Awarded: g.Amount, Persist: true}
	settle(rules, &next, &res, s.Character.Level)
	res.State = next
	return res, nil
}

func reduceUndo(rules *Rules, s State) (Result, error) {
	prev, rest, ok := s.Undo.popped()
	if !ok {
		return Result{State: s}, ErrNothingToUndo
	}
	next := s
	next.Undo = rest
	next.Character = prev
	next.Character.TalentPoints = rules.Talents.AvailablePoints(prev.Level, prev.UnlockedTalents)
	return Result{State: next, Persist: true}, nil
}

func reduceProfile(s State, e UpdateProfile) (Result, error) {
	c := s.Character.Clone()
	if e.AvatarName != nil {
		name := strings.TrimSpace(*e.AvatarName)
		if len(name) > 40 {
			return Result{State: s}, fmt.Errorf("%w: avatar name longer than 40 characters", ErrInvalidArgument)
		}
		c.AvatarName = name
	}
	if e.PlayerClass != nil {
		class, err := ParseClass(string(*e.PlayerClass))
		if err != nil {
			return Result{State: s}, err
		}
		c.PlayerClass = class
	}
	if e.Traits != nil {
		raw := make([]string, len(e.Traits))
		for i, t := range e.Traits {
			raw[i] = string(t)
		}
		traits, err := ParseTraits(raw)
		if err != nil {
			return Result{State: s}, err
		}
		c.Traits = traits
	}
	next := s
	next.Character = c
	return Result{State: next, Persist: true}, nil
}

// reduceRemote replaces the character. The undo stack refers to snapshots the remote writer
// never saw, so it is dropped. Claimed achievements only ever grow.
func reduceRemote(rules *Rules, s State, e RemoteSnapshot) Result {
	next := s
	next.Character = e.Character.Normalize()
	next.Character.TalentPoints = rules.Talents.AvailablePoints(next.Character.Level, next.Character.UnlockedTalents)
	next.Claimed = dedupeSorted(append(append([]string(nil), s.Claimed...), e.Claimed...))
	next.Undo = UndoStack{}
	return Result{State: next}
}

// settle grants achievement rewards until no new id unlocks, then recomputes talent points.
// Each pass claims at least one id, so the loop ends within len(catalog) passes.
func settle(rules *Rules, s *State, res *Result, levelBefore int) {
	for pass := 0; pass <= len(rules.Achievements.achievements); pass++ {
		fresh := Diff(s.Claimed, rules.Achievements.Evaluate(s.Character, s.History))
		if len(fresh) == 0 {
			break
		}
		claimed := append([]string(nil), s.Claimed...)
		for _, id := range fresh {
			a, _ := rules.Achievements.Lookup(id)
			claimed = append(claimed, id)
			reward := a.Reward()
			if c, err := ApplyXP(s.Character, Grant{Amount: reward}); err == nil {
				s.Character = c
			}
			res.Rewards = append(res.Rewards, AchievementReward{ID: a.ID, Title: a.Title, Rarity: a.Rarity, XP: reward})
		}
		s.Claimed = dedupeSorted(claimed)
	}
	s.Character.TalentPoints = rules.Talents.AvailablePoints(s.Character.Level, s.Character.UnlockedTalents)
	res.LevelsGained = s.Character.Level - levelBefore
	if res.LevelsGained < 0 {
		res.LevelsGained = 0
	}
}
