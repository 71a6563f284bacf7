package progression

import (
	"fmt"
	"sort"
)

// Character is the authoritative progression snapshot.
type Character struct {
	Level           int        `json:"level"`
	XP              int        `json:"xp"`
	TotalXP         int        `json:"total_xp"`
	Attributes      Attributes `json:"attributes"`
	TalentPoints    int        `json:"talent_points"`
	UnlockedTalents []string   `json:"unlocked_talents"`
	Traits          []Trait    `json:"traits"`
	PlayerClass     Class      `json:"player_class,omitempty"`
	AvatarName      string     `json:"avatar_name,omitempty"`
}

// NewCharacter returns a level 1 character with zeroed attributes.
func NewCharacter() Character {
	return Character{
		Level:      1,
		Attributes: NewAttributes(),
	}
}

// Clone returns a deep copy so snapshots never share maps or slices.
func (c Character) Clone() Character {
	out := c
	out.Attributes = c.Attributes.Clone()
	out.UnlockedTalents = append([]string(nil), c.UnlockedTalents...)
	out.Traits = append([]Trait(nil), c.Traits...)
	return out
}

// HasTalent reports whether the talent id is unlocked.
func (c Character) HasTalent(id string) bool {
	for _, t := range c.UnlockedTalents {
		if t == id {
			return true
		}
	}
	return false
}

// HasTrait reports whether the character carries the trait.
func (c Character) HasTrait(t Trait) bool {
	for _, have := range c.Traits {
		if have == t {
			return true
		}
	}
	return false
}

// unlockedSet returns the unlocked talents as a set.
func (c Character) unlockedSet() map[string]bool {
	out := make(map[string]bool, len(c.UnlockedTalents))
	for _, id := range c.UnlockedTalents {
		out[id] = true
	}
	return out
}

// Validate checks the level/xp representation invariants.
func (c Character) Validate() error {
	if c.Level < 1 {
		return fmt.Errorf("%w: level %d < 1", ErrInvalidArgument, c.Level)
	}
	if c.XP < 0 || c.TotalXP < 0 {
		return fmt.Errorf("%w: xp must not be negative", ErrInvalidArgument)
	}
	if c.XP >= XPRangeForLevel(c.Level) {
		return fmt.Errorf("%w: xp %d has a pending rollover at level %d", ErrInvalidArgument, c.XP, c.Level)
	}
	for _, a := range AllAttributes {
		if c.Attributes[a] < 0 {
			return fmt.Errorf("%w: attribute %s is negative", ErrInvalidArgument, a)
		}
	}
	return nil
}

// Normalize fills missing attributes and resolves any pending rollover left by an
// externally supplied snapshot (for example a hand-edited remote document).
func (c Character) Normalize() Character {
	out := c.Clone()
	if out.Level < 1 {
		out.Level = 1
	}
	if out.XP < 0 {
		out.XP = 0
	}
	if out.Attributes == nil {
		out.Attributes = NewAttributes()
	}
	for _, a := range AllAttributes {
		if _, ok := out.Attributes[a]; !ok {
			out.Attributes[a] = 0
		}
	}
	out.rollover()
	out.UnlockedTalents = dedupeSorted(out.UnlockedTalents)
	return out
}

// rollover subtracts whole level ranges from XP until no level-up is pending.
func (c *Character) rollover() {
	for c.Level < MaxLevel {
		span := XPRangeForLevel(c.Level)
		if c.XP < span {
			return
		}
		c.XP -= span
		c.Level++
	}
}

func dedupeSorted(ids []string) []string {
	sort.Strings(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
