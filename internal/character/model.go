package character

import (
	"fmt"
	"time"

	"github.com/lifequest/lifequest-services/internal/progression"
)

// Document is the stored character record, keyed by user id.
type Document struct {
	Level               int            `firestore:"level" json:"level"`
	XP                  int            `firestore:"xp" json:"xp"`
	TotalXP             int            `firestore:"totalXP" json:"totalXP"`
	AvatarName          string         `firestore:"avatarName" json:"avatarName"`
	Attributes          map[string]int `firestore:"attributes" json:"attributes"`
	Segments            map[string]any `firestore:"segments,omitempty" json:"segments,omitempty"`
	Talents             []string       `firestore:"talents" json:"talents"`
	Traits              []string       `firestore:"traits" json:"traits"`
	PlayerClass         string         `firestore:"playerClass" json:"playerClass"`
	ClaimedAchievements []string       `firestore:"claimedAchievements" json:"claimedAchievements"`
	Writer              string         `firestore:"writer" json:"writer"`
	UpdatedAt           time.Time      `firestore:"updatedAt" json:"updatedAt"`
}

// NewDocument maps a character to its stored form. Segments are UI owned and never written here.
func NewDocument(c progression.Character, claimed []string, writer string, now time.Time) Document {
	traits := make([]string, 0, len(c.Traits))
	for _, t := range c.Traits {
		traits = append(traits, string(t))
	}
	return Document{
		Level:               c.Level,
		XP:                  c.XP,
		TotalXP:             c.TotalXP,
		AvatarName:          c.AvatarName,
		Attributes:          c.Attributes.ToMap(),
		Talents:             append([]string{}, c.UnlockedTalents...),
		Traits:              traits,
		PlayerClass:         string(c.PlayerClass),
		ClaimedAchievements: append([]string{}, claimed...),
		Writer:              writer,
		UpdatedAt:           now.UTC(),
	}
}

// Character validates the document and maps it back. Legacy attribute keys are accepted.
func (d Document) Character() (progression.Character, error) {
	attrs, err := progression.AttributesFromMap(d.Attributes)
	if err != nil {
		return progression.Character{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	traits, err := progression.ParseTraits(d.Traits)
	if err != nil {
		return progression.Character{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	class, err := progression.ParseClass(d.PlayerClass)
	if err != nil {
		return progression.Character{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d.XP < 0 || d.TotalXP < 0 {
		return progression.Character{}, fmt.Errorf("%w: negative xp", ErrInvalidDocument)
	}

	c := progression.Character{
		Level:           d.Level,
		XP:              d.XP,
		TotalXP:         d.TotalXP,
		Attributes:      attrs,
		UnlockedTalents: append([]string(nil), d.Talents...),
		Traits:          traits,
		PlayerClass:     class,
		AvatarName:      d.AvatarName,
	}
	return c.Normalize(), nil
}

// fields returns the merge payload. Only keys owned by this service are present, so
// firestore.MergeAll leaves UI-only fields such as segments untouched.
func (d Document) fields() map[string]any {
	return map[string]any{
		"level":               d.Level,
		"xp":                  d.XP,
		"totalXP":             d.TotalXP,
		"avatarName":          d.AvatarName,
		"attributes":          d.Attributes,
		"talents":             d.Talents,
		"traits":              d.Traits,
		"playerClass":         d.PlayerClass,
		"claimedAchievements": d.ClaimedAchievements,
		"writer":              d.Writer,
		"updatedAt":           d.UpdatedAt,
	}
}

// MissionRecord is the stored form of a mission.
type MissionRecord struct {
	ID          string     `firestore:"id"`
	Title       string     `firestore:"title"`
	Description string     `firestore:"description"`
	XPValue     int        `firestore:"xpValue"`
	Attribute   string     `firestore:"attribute"`
	Status      string     `firestore:"status"`
	Outcome     string     `firestore:"outcome,omitempty"`
	Generated   bool       `firestore:"generated"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	CompletedAt *time.Time `firestore:"completedAt"`
}

func newMissionRecord(m progression.Mission) MissionRecord {
	return MissionRecord{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		XPValue:     m.XPValue,
		Attribute:   string(m.Attribute),
		Status:      string(m.Status),
		Outcome:     string(m.Outcome),
		Generated:   m.Generated,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}
}

func (r MissionRecord) mission() (progression.Mission, error) {
	attr, err := progression.ParseAttribute(r.Attribute)
	if err != nil {
		return progression.Mission{}, fmt.Errorf("%w: mission %s: %v", ErrInvalidDocument, r.ID, err)
	}
	status := progression.MissionStatus(r.Status)
	if status != progression.MissionCompleted {
		status = progression.MissionPending
	}
	return progression.Mission{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		XPValue:     progression.ClampMissionXP(r.XPValue),
		Attribute:   attr,
		Status:      status,
		Outcome:     progression.Outcome(r.Outcome),
		Generated:   r.Generated,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}, nil
}

// HistoryRecord is the stored form of a ledger entry. Its document id is the mission id.
type HistoryRecord struct {
	MissionID string    `firestore:"missionId"`
	XPValue   int       `firestore:"xpValue"`
	XPAwarded int       `firestore:"xpAwarded"`
	Attribute string    `firestore:"attribute"`
	Success   bool      `firestore:"success"`
	Timestamp time.Time `firestore:"timestamp"`
}

func newHistoryRecord(e progression.HistoryEntry) HistoryRecord {
	return HistoryRecord{
		MissionID: e.MissionID,
		XPValue:   e.XPValue,
		XPAwarded: e.XPAwarded,
		Attribute: string(e.Attribute),
		Success:   e.Success,
		Timestamp: e.Timestamp,
	}
}

func (r HistoryRecord) entry() (progression.HistoryEntry, error) {
	attr, err := progression.ParseAttribute(r.Attribute)
	if err != nil {
		return progression.HistoryEntry{}, fmt.Errorf("%w: history %s: %v", ErrInvalidDocument, r.MissionID, err)
	}
	return progression.HistoryEntry{
		MissionID: r.MissionID,
		XPValue:   r.XPValue,
		XPAwarded: r.XPAwarded,
		Attribute: attr,
		Success:   r.Success,
		Timestamp: r.Timestamp,
	}, nil
}

// Snapshot is everything stored for one user.
type Snapshot struct {
	Found     bool
	Document  Document
	Character progression.Character
	Missions  []progression.Mission
	History   progression.History
}

// Change is a pending write. The document is latest-wins; missions are keyed by id and
// history entries are keyed by mission id, so replaying a change is harmless.
type Change struct {
	Document *Document
	Missions map[string]progression.Mission
	History  []progression.HistoryEntry
}

// Empty reports whether the change carries nothing to write.
func (c Change) Empty() bool {
	return c.Document == nil && len(c.Missions) == 0 && len(c.History) == 0
}

// Merge folds next on top of c and returns the combined change.
func (c Change) Merge(next Change) Change {
	out := Change{Document: c.Document}
	if next.Document != nil {
		out.Document = next.Document
	}
	if len(c.Missions)+len(next.Missions) > 0 {
		out.Missions = make(map[string]progression.Mission, len(c.Missions)+len(next.Missions))
		for id, m := range c.Missions {
			out.Missions[id] = m
		}
		for id, m := range next.Missions {
			out.Missions[id] = m
		}
	}
	seen := make(map[string]bool, len(c.History)+len(next.History))
	for _, list := range [][]progression.HistoryEntry{c.History, next.History} {
		for _, e := range list {
			if seen[e.MissionID] {
				continue
			}
			seen[e.MissionID] = true
			out.History = append(out.History, e)
		}
	}
	return out
}
