package progression

import "fmt"

const (
	// LevelCurveCoef scales the quadratic curve: threshold(L) = 100 * L^2.
	LevelCurveCoef = 100

	// MaxLevel bounds the level search; reaching it needs 10^10 XP.
	MaxLevel = 10_000
)

// XPRequiredForLevel returns the cumulative XP needed to stand at the given level.
// Level 1 is the starting level and requires nothing.
func XPRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return LevelCurveCoef * level * level
}

// XPRangeForLevel is the XP needed to go from level to level+1.
func XPRangeForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return XPRequiredForLevel(level+1) - XPRequiredForLevel(level)
}

// LevelForTotalXP returns the highest level L such that totalXP >= XPRequiredForLevel(L).
func LevelForTotalXP(totalXP int) (int, error) {
	if totalXP < 0 {
		return 0, fmt.Errorf("%w: total xp %d is negative", ErrInvalidArgument, totalXP)
	}

	// Exponential search upper bound, then binary search.
	low := 1
	high := 2
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > MaxLevel {
			high = MaxLevel + 1
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low, nil
}

// LevelProgress describes where a total XP value sits on the curve.
type LevelProgress struct {
	Level       int     `json:"level"`
	XPIntoLevel int     `json:"xp_into_level"`
	XPForLevel  int     `json:"xp_for_level"`
	XPToNext    int     `json:"xp_to_next"`
	Percent     float64 `json:"percent"`
}

// ProgressForTotalXP computes level, remaining XP into the level and percent progress in [0,100).
func ProgressForTotalXP(totalXP int) (LevelProgress, error) {
	level, err := LevelForTotalXP(totalXP)
	if err != nil {
		return LevelProgress{}, err
	}
	into := totalXP - XPRequiredForLevel(level)
	span := XPRangeForLevel(level)
	return LevelProgress{
		Level:       level,
		XPIntoLevel: into,
		XPForLevel:  span,
		XPToNext:    span - into,
		Percent:     float64(into) / float64(span) * 100,
	}, nil
}
