package progression

import "errors"

var (
	// ErrInvalidArgument indicates a rejected input: non-positive XP, malformed mission, unknown attribute.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyCompleted indicates the mission was completed before; callers treat it as a no-op.
	ErrAlreadyCompleted = errors.New("mission already completed")
	// ErrMissionNotFound indicates an unknown mission id.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrInsufficientPoints indicates the talent costs more than the available points.
	ErrInsufficientPoints = errors.New("insufficient talent points")
	// ErrUnmetPrerequisite indicates at least one required talent is still locked.
	ErrUnmetPrerequisite = errors.New("unmet talent prerequisite")
	// ErrAlreadyUnlocked indicates the talent is unlocked already.
	ErrAlreadyUnlocked = errors.New("talent already unlocked")
	// ErrUnknownTalent indicates a talent id that is not part of the tree.
	ErrUnknownTalent = errors.New("unknown talent")
	// ErrTalentCycle indicates the requires relation of a talent tree is not acyclic.
	ErrTalentCycle = errors.New("talent tree contains a cycle")

	// ErrNothingToUndo indicates an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")
)
