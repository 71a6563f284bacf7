package progression

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinMissionXP = 1
	MaxMissionXP = 500
)

// Difficulty is derived from a mission's XP value and never stored.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyEpic   Difficulty = "epic"
)

// DifficultyForXP maps an XP value to its tier.
func DifficultyForXP(xp int) Difficulty {
	switch {
	case xp >= 200:
		return DifficultyEpic
	case xp >= 100:
		return DifficultyHard
	case xp >= 50:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

type MissionStatus string

const (
	MissionPending   MissionStatus = "pending"
	MissionCompleted MissionStatus = "completed"
)

// Outcome is the result reported when a mission is completed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
)

func (o Outcome) IsValid() bool {
	return o == OutcomeSuccess || o == OutcomeFail
}

// Mission is a unit of work the player can complete once.
type Mission struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	XPValue     int           `json:"xp_value"`
	Attribute   Attribute     `json:"attribute"`
	Status      MissionStatus `json:"status"`
	Outcome     Outcome       `json:"outcome,omitempty"`
	Generated   bool          `json:"generated,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Difficulty derives the tier from the XP value.
func (m Mission) Difficulty() Difficulty {
	return DifficultyForXP(m.XPValue)
}

// MissionInput is the raw data for a new mission.
type MissionInput struct {
	ID          string
	Title       string
	Description string
	XPValue     int
	Attribute   Attribute
}

// ClampMissionXP sanitizes user supplied XP into [MinMissionXP, MaxMissionXP].
func ClampMissionXP(xp int) int {
	return clamp(xp, MinMissionXP, MaxMissionXP)
}

// NewMission validates the input and returns a pending mission. XP is clamped, not rejected.
func NewMission(in MissionInput, now time.Time) (Mission, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Mission{}, fmt.Errorf("%w: mission title is required", ErrInvalidArgument)
	}
	if !in.Attribute.IsValid() {
		return Mission{}, fmt.Errorf("%w: unknown attribute %q", ErrInvalidArgument, in.Attribute)
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return Mission{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		XPValue:     ClampMissionXP(in.XPValue),
		Attribute:   in.Attribute,
		Status:      MissionPending,
		CreatedAt:   now.UTC(),
	}, nil
}

// CompleteMission transitions a pending mission to completed and returns the ledger entry.
// A mission that is already completed is returned unchanged together with ErrAlreadyCompleted.
func CompleteMission(m Mission, outcome Outcome, now time.Time) (Mission, HistoryEntry, error) {
	if m.Status == MissionCompleted {
		return m, HistoryEntry{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, m.ID)
	}
	if !outcome.IsValid() {
		return m, HistoryEntry{}, fmt.Errorf("%w: unknown outcome %q", ErrInvalidArgument, outcome)
	}

	at := now.UTC()
	out := m
	out.Status = MissionCompleted
	out.Outcome = outcome
	out.CompletedAt = &at

	entry := HistoryEntry{
		MissionID: m.ID,
		XPValue:   m.XPValue,
		Attribute: m.Attribute,
		Success:   outcome == OutcomeSuccess,
		Timestamp: at,
	}
	return out, entry, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
