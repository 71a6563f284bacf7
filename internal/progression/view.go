package progression

import "time"

// AchievementStatus is an achievement together with its evaluation.
type AchievementStatus struct {
	Achievement
	XP       int  `json:"xp"`
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

// TalentStatus is a talent node together with its resolved state.
type TalentStatus struct {
	TalentNode
	State NodeState `json:"state"`
}

// StreakView summarizes the streak engine.
type StreakView struct {
	Current       int `json:"current"`
	Longest       int `json:"longest"`
	NextMilestone int `json:"next_milestone"`
	Remaining     int `json:"remaining"`
}

// View is the read model served to clients. Every field is derived from State and now.
type View struct {
	Character       Character           `json:"character"`
	Progress        LevelProgress       `json:"progress"`
	Streak          StreakView          `json:"streak"`
	TodayXP         int                 `json:"today_xp"`
	TodayCompleted  int                 `json:"today_completed"`
	WeeklySeries    [7]int              `json:"weekly_series"`
	Boss            BossProgress        `json:"boss"`
	AvailablePoints int                 `json:"available_points"`
	Talents         []TalentStatus      `json:"talents"`
	Achievements    []AchievementStatus `json:"achievements"`
	PendingMissions int                 `json:"pending_missions"`
	UndoDepth       int                 `json:"undo_depth"`
}

// BuildView derives the read model.
func BuildView(rules *Rules, s State, now time.Time) View {
	now = now.In(rules.Location)
	c := s.Character

	progress, err := ProgressForTotalXP(c.TotalXP)
	if err != nil || progress.Level != c.Level {
		// The stored level/xp pair is authoritative; the curve only supplies the range.
		span := XPRangeForLevel(c.Level)
		progress = LevelProgress{
			Level:       c.Level,
			XPIntoLevel: c.XP,
			XPForLevel:  span,
			XPToNext:    span - c.XP,
			Percent:     float64(c.XP) / float64(span) * 100,
		}
	}

	streak := CurrentStreak(s.History, now, c.Traits)
	facts := CollectFacts(c, s.History, rules.Location)
	unlocked := toSet(rules.Achievements.EvaluateFacts(facts))
	for _, id := range s.Claimed {
		unlocked[id] = true
	}

	achievements := make([]AchievementStatus, 0, len(rules.Achievements.achievements))
	for _, a := range rules.Achievements.achievements {
		achievements = append(achievements, AchievementStatus{
			Achievement: a,
			XP:          a.Reward(),
			Unlocked:    unlocked[a.ID],
			Progress:    a.Rule.Progress(facts),
		})
	}

	states := rules.Talents.Status(c.Level, c.UnlockedTalents)
	talents := make([]TalentStatus, 0, rules.Talents.Len())
	for _, n := range rules.Talents.Nodes() {
		talents = append(talents, TalentStatus{TalentNode: n, State: states[n.ID]})
	}

	return View{
		Character: c,
		Progress:  progress,
		Streak: StreakView{
			Current:       streak,
			Longest:       facts.LongestStreak,
			NextMilestone: NextMilestone(streak),
			Remaining:     RemainingToMilestone(streak),
		},
		TodayXP:         s.History.XPEarnedOn(now),
		TodayCompleted:  s.History.CompletedCountOn(now),
		WeeklySeries:    s.History.WeeklySeries(now),
		Boss:            WeeklyBoss(s.History, now),
		AvailablePoints: rules.Talents.AvailablePoints(c.Level, c.UnlockedTalents),
		Talents:         talents,
		Achievements:    achievements,
		PendingMissions: len(s.Pending()),
		UndoDepth:       s.Undo.Len(),
	}
}
