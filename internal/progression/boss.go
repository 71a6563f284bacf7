package progression

import "time"

// BossHP is the hit points of every weekly boss.
const BossHP = 1000

var bossNames = []string{
	"Procrastination Hydra",
	"Lord of Distraction",
	"Debt Golem",
	"Sloth Titan",
	"Shadow of Isolation",
	"Chaos Wyrm",
}

// BossProgress is the state of the boss for one ISO week.
type BossProgress struct {
	Name      string    `json:"name"`
	WeekStart time.Time `json:"week_start"`
	HP        int       `json:"hp"`
	Damage    int       `json:"damage"`
	Remaining int       `json:"remaining"`
	Percent   float64   `json:"percent"`
	Defeated  bool      `json:"defeated"`
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	day := truncateToDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// BossName rotates through the roster by ISO week number.
func BossName(t time.Time) string {
	year, week := t.ISOWeek()
	return bossNames[(year*53+week)%len(bossNames)]
}

// WeeklyBoss computes the boss of the week containing now. Damage is the week's successful XP.
func WeeklyBoss(h History, now time.Time) BossProgress {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)

	damage := 0
	for _, e := range h {
		if !e.Success {
			continue
		}
		ts := e.Timestamp.In(now.Location())
		if !ts.Before(start) && ts.Before(end) {
			damage += e.XPValue
		}
	}

	remaining := BossHP - damage
	if remaining < 0 {
		remaining = 0
	}
	percent := float64(damage) / float64(BossHP) * 100
	if percent > 100 {
		percent = 100
	}
	return BossProgress{
		Name:      BossName(start),
		WeekStart: start,
		HP:        BossHP,
		Damage:    damage,
		Remaining: remaining,
		Percent:   percent,
		Defeated:  damage >= BossHP,
	}
}

// BossesDefeated counts the weeks in which successful XP reached BossHP.
func BossesDefeated(h History, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	perWeek := make(map[string]int)
	for _, e := range h {
		if !e.Success {
			continue
		}
		perWeek[dayKey(WeekStart(e.Timestamp.In(loc)), loc)] += e.XPValue
	}
	n := 0
	for _, xp := range perWeek {
		if xp >= BossHP {
			n++
		}
	}
	return n
}
