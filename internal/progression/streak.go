package progression

import (
	"sort"
	"time"
)

const (
	// StreakLookbackDays bounds the backward scan; a streak never exceeds it.
	StreakLookbackDays = 365

	// MilestoneStep spaces streak milestones.
	MilestoneStep = 5
)

// CurrentStreak counts consecutive days, ending today, with at least one successful entry.
// The scan stops at the first day without a success. A persistent character never reports 0.
func CurrentStreak(h History, today time.Time, traits []Trait) int {
	loc := today.Location()
	days := h.successDays(loc)
	day := truncateToDay(today)

	streak := 0
	for i := 0; i < StreakLookbackDays; i++ {
		if !days[dayKey(day.AddDate(0, 0, -i), loc)] {
			break
		}
		streak++
	}

	if streak == 0 {
		for _, t := range traits {
			if t == TraitPersistent {
				return 1
			}
		}
	}
	return streak
}

// LongestStreak is the longest run of consecutive success days anywhere in the ledger.
// It only grows as the ledger grows, which makes it safe for achievement rules.
func LongestStreak(h History, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	keys := make([]string, 0)
	for k := range h.successDays(loc) {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	longest := 0
	current := 0
	var prev time.Time
	for _, k := range keys {
		day, err := time.ParseInLocation(dayLayout, k, loc)
		if err != nil {
			continue
		}
		if !prev.IsZero() && day.Equal(prev.AddDate(0, 0, 1)) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = day
	}
	return longest
}

// NextMilestone returns the next multiple of MilestoneStep strictly above streak.
func NextMilestone(streak int) int {
	if streak < 0 {
		streak = 0
	}
	return (streak/MilestoneStep + 1) * MilestoneStep
}

// RemainingToMilestone is the number of days left until the next milestone.
func RemainingToMilestone(streak int) int {
	if streak < 0 {
		streak = 0
	}
	return NextMilestone(streak) - streak
}
