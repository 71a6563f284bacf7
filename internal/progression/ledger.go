package progression

import "fmt"

// Grant is a single XP application. Attribute is optional; when set the attribute gains one point.
type Grant struct {
	Amount    int       `json:"amount"`
	Attribute Attribute `json:"attribute,omitempty"`
}

// ApplyXP returns a new snapshot with the grant applied. Multi-level jumps resolve in one call.
func ApplyXP(c Character, g Grant) (Character, error) {
	if g.Amount <= 0 {
		return c, fmt.Errorf("%w: xp amount must be positive, got %d", ErrInvalidArgument, g.Amount)
	}
	if g.Attribute != "" && !g.Attribute.IsValid() {
		return c, fmt.Errorf("%w: unknown attribute %q", ErrInvalidArgument, g.Attribute)
	}

	out := c.Clone()
	if out.Level < 1 {
		out.Level = 1
	}
	if out.Attributes == nil {
		out.Attributes = NewAttributes()
	}
	out.XP += g.Amount
	out.TotalXP += g.Amount
	out.rollover()
	if g.Attribute != "" {
		out.Attributes[g.Attribute]++
	}
	return out, nil
}

// UndoStack keeps pre-apply snapshots for the lifetime of a session. It is never persisted.
type UndoStack struct {
	snapshots []Character
}

// Push records the snapshot taken before a mutation.
func (u *UndoStack) Push(c Character) {
	u.snapshots = append(u.snapshots, c.Clone())
}

// Pop returns the most recent snapshot, or false when empty.
func (u *UndoStack) Pop() (Character, bool) {
	if len(u.snapshots) == 0 {
		return Character{}, false
	}
	last := u.snapshots[len(u.snapshots)-1]
	u.snapshots = u.snapshots[:len(u.snapshots)-1]
	return last, true
}

// Len is the number of undoable steps.
func (u UndoStack) Len() int { return len(u.snapshots) }

// Clear drops every snapshot.
func (u *UndoStack) Clear() { u.snapshots = nil }

// pushed returns a copy of the stack with c on top; the receiver is left untouched.
func (u UndoStack) pushed(c Character) UndoStack {
	out := make([]Character, len(u.snapshots), len(u.snapshots)+1)
	copy(out, u.snapshots)
	return UndoStack{snapshots: append(out, c.Clone())}
}

// popped returns the top snapshot and the remaining stack without modifying the receiver.
func (u UndoStack) popped() (Character, UndoStack, bool) {
	if len(u.snapshots) == 0 {
		return Character{}, u, false
	}
	last := len(u.snapshots) - 1
	return u.snapshots[last].Clone(), UndoStack{snapshots: u.snapshots[:last:last]}, true
}
