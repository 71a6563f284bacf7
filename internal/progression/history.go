package progression

import (
	"sort"
	"time"
)

const dayLayout = "2006-01-02"

// HistoryEntry is one immutable line of the completion ledger.
type HistoryEntry struct {
	MissionID string    `json:"mission_id"`
	XPValue   int       `json:"xp_value"`
	XPAwarded int       `json:"xp_awarded"`
	Attribute Attribute `json:"attribute"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the append-only completion ledger. Aggregates are always derived from it.
type History []HistoryEntry

// Append returns a new ledger with the entry added; the receiver is left untouched.
func (h History) Append(e HistoryEntry) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, e)
}

// Sorted returns a copy ordered by timestamp, oldest first.
func (h History) Sorted() History {
	out := make(History, len(h))
	copy(out, h)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Contains reports whether the mission already has an entry.
func (h History) Contains(missionID string) bool {
	for _, e := range h {
		if e.MissionID == missionID {
			return true
		}
	}
	return false
}

// XPEarnedOn sums the XP of successful entries on the calendar day of date (in date's location).
func (h History) XPEarnedOn(date time.Time) int {
	key := dayKey(date, date.Location())
	total := 0
	for _, e := range h {
		if e.Success && dayKey(e.Timestamp, date.Location()) == key {
			total += e.XPValue
		}
	}
	return total
}

// CompletedCountOn counts successful entries on the calendar day of date.
func (h History) CompletedCountOn(date time.Time) int {
	key := dayKey(date, date.Location())
	n := 0
	for _, e := range h {
		if e.Success && dayKey(e.Timestamp, date.Location()) == key {
			n++
		}
	}
	return n
}

// WeeklySeries returns XP per day for the seven days ending at ref, oldest first.
func (h History) WeeklySeries(ref time.Time) [7]int {
	loc := ref.Location()
	index := make(map[string]int, 7)
	start := truncateToDay(ref).AddDate(0, 0, -6)
	for i := 0; i < 7; i++ {
		index[dayKey(start.AddDate(0, 0, i), loc)] = i
	}

	var series [7]int
	for _, e := range h {
		if !e.Success {
			continue
		}
		if i, ok := index[dayKey(e.Timestamp, loc)]; ok {
			series[i] += e.XPValue
		}
	}
	return series
}

// SuccessCount is the number of successful completions ever.
func (h History) SuccessCount() int {
	n := 0
	for _, e := range h {
		if e.Success {
			n++
		}
	}
	return n
}

// FailureCount is the number of failed completions ever.
func (h History) FailureCount() int {
	return len(h) - h.SuccessCount()
}

// successDays returns the set of day keys with at least one successful entry.
func (h History) successDays(loc *time.Location) map[string]bool {
	days := make(map[string]bool)
	for _, e := range h {
		if e.Success {
			days[dayKey(e.Timestamp, loc)] = true
		}
	}
	return days
}

func dayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
