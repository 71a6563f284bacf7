package progression

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Rarity is the tier of an achievement; it fixes the XP reward.
type Rarity string

const (
	RarityComum    Rarity = "Comum"
	RarityRara     Rarity = "Rara"
	RarityEpica    Rarity = "Épica"
	RarityLendaria Rarity = "Lendária"
	RarityMitica   Rarity = "Mítica"
)

// ParseRarity accepts the canonical names or their English equivalents.
func ParseRarity(input string) (Rarity, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "comum", "common":
		return RarityComum, nil
	case "rara", "rare":
		return RarityRara, nil
	case "épica", "epica", "epic":
		return RarityEpica, nil
	case "lendária", "lendaria", "legendary":
		return RarityLendaria, nil
	case "mítica", "mitica", "mythic":
		return RarityMitica, nil
	default:
		return "", fmt.Errorf("%w: unknown rarity %q", ErrInvalidArgument, input)
	}
}

// XPByRarity is the one-time reward for unlocking an achievement of the given rarity.
func XPByRarity(r Rarity) int {
	switch r {
	case RarityComum:
		return 100
	case RarityRara:
		return 200
	case RarityEpica:
		return 500
	case RarityLendaria:
		return 1000
	case RarityMitica:
		return 2000
	default:
		return 0
	}
}

// RuleKind names the monotonic quantity an achievement rule compares against.
type RuleKind string

const (
	RuleLevel             RuleKind = "level"
	RuleTotalXP           RuleKind = "total_xp"
	RuleAttribute         RuleKind = "attribute"
	RuleMissionsCompleted RuleKind = "missions_completed"
	RuleLongestStreak     RuleKind = "longest_streak"
	RuleTalentsUnlocked   RuleKind = "talents_unlocked"
	RuleBossesDefeated    RuleKind = "bosses_defeated"
)

func (k RuleKind) IsValid() bool {
	switch k {
	case RuleLevel, RuleTotalXP, RuleAttribute, RuleMissionsCompleted, RuleLongestStreak, RuleTalentsUnlocked, RuleBossesDefeated:
		return true
	default:
		return false
	}
}

// Rule is satisfied once the measured quantity reaches Threshold.
type Rule struct {
	Kind      RuleKind  `json:"kind" yaml:"kind"`
	Attribute Attribute `json:"attribute,omitempty" yaml:"attribute"`
	Threshold int       `json:"threshold" yaml:"threshold"`
}

type Achievement struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Rarity      Rarity `json:"rarity" yaml:"rarity"`
	Rule        Rule   `json:"rule" yaml:"rule"`
}

// Reward is the XP granted when the achievement first unlocks.
func (a Achievement) Reward() int { return XPByRarity(a.Rarity) }

func (a Achievement) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: achievement id is required", ErrInvalidArgument)
	}
	if XPByRarity(a.Rarity) == 0 {
		return fmt.Errorf("%w: achievement %q has unknown rarity %q", ErrInvalidArgument, a.ID, a.Rarity)
	}
	if !a.Rule.Kind.IsValid() {
		return fmt.Errorf("%w: achievement %q has unknown rule %q", ErrInvalidArgument, a.ID, a.Rule.Kind)
	}
	if a.Rule.Kind == RuleAttribute && !a.Rule.Attribute.IsValid() {
		return fmt.Errorf("%w: achievement %q needs a valid attribute", ErrInvalidArgument, a.ID)
	}
	if a.Rule.Threshold < 1 {
		return fmt.Errorf("%w: achievement %q threshold must be >= 1", ErrInvalidArgument, a.ID)
	}
	return nil
}

// Facts are the non-decreasing quantities achievement rules read.
type Facts struct {
	Level             int
	TotalXP           int
	Attributes        Attributes
	MissionsCompleted int
	LongestStreak     int
	TalentsUnlocked   int
	BossesDefeated    int
}

// CollectFacts derives the rule inputs from a character and its ledger.
func CollectFacts(c Character, h History, loc *time.Location) Facts {
	return Facts{
		Level:             c.Level,
		TotalXP:           c.TotalXP,
		Attributes:        c.Attributes.Clone(),
		MissionsCompleted: h.SuccessCount(),
		LongestStreak:     LongestStreak(h, loc),
		TalentsUnlocked:   len(c.UnlockedTalents),
		BossesDefeated:    BossesDefeated(h, loc),
	}
}

func (r Rule) measure(f Facts) int {
	switch r.Kind {
	case RuleLevel:
		return f.Level
	case RuleTotalXP:
		return f.TotalXP
	case RuleAttribute:
		return f.Attributes[r.Attribute]
	case RuleMissionsCompleted:
		return f.MissionsCompleted
	case RuleLongestStreak:
		return f.LongestStreak
	case RuleTalentsUnlocked:
		return f.TalentsUnlocked
	case RuleBossesDefeated:
		return f.BossesDefeated
	default:
		return 0
	}
}

// Satisfied reports whether the rule holds for the facts.
func (r Rule) Satisfied(f Facts) bool {
	return r.measure(f) >= r.Threshold
}

// Progress returns the measured value capped at the threshold.
func (r Rule) Progress(f Facts) int {
	v := r.measure(f)
	if v > r.Threshold {
		return r.Threshold
	}
	return v
}

// Evaluator holds a validated achievement catalog.
type Evaluator struct {
	achievements []Achievement
	byID         map[string]Achievement
	loc          *time.Location
}

// NewEvaluator validates the catalog. Day boundaries for streak and boss facts use loc.
func NewEvaluator(achievements []Achievement, loc *time.Location) (*Evaluator, error) {
	if loc == nil {
		loc = time.UTC
	}
	e := &Evaluator{byID: make(map[string]Achievement, len(achievements)), loc: loc}
	for _, a := range achievements {
		if err := a.validate(); err != nil {
			return nil, err
		}
		if _, dup := e.byID[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate achievement id %q", ErrInvalidArgument, a.ID)
		}
		e.byID[a.ID] = a
		e.achievements = append(e.achievements, a)
	}
	return e, nil
}

// Achievements returns the catalog in declaration order.
func (e *Evaluator) Achievements() []Achievement {
	out := make([]Achievement, len(e.achievements))
	copy(out, e.achievements)
	return out
}

// Lookup returns the achievement with the given id.
func (e *Evaluator) Lookup(id string) (Achievement, bool) {
	a, ok := e.byID[id]
	return a, ok
}

// Location is the zone used for day boundaries.
func (e *Evaluator) Location() *time.Location { return e.loc }

// Evaluate recomputes the unlocked set from scratch. The result is sorted.
func (e *Evaluator) Evaluate(c Character, h History) []string {
	return e.EvaluateFacts(CollectFacts(c, h, e.loc))
}

// EvaluateFacts is Evaluate over precomputed facts.
func (e *Evaluator) EvaluateFacts(f Facts) []string {
	var out []string
	for _, a := range e.achievements {
		if a.Rule.Satisfied(f) {
			out = append(out, a.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Diff returns ids present in current but not in claimed, sorted.
func Diff(claimed, current []string) []string {
	have := toSet(claimed)
	var out []string
	for _, id := range current {
		if !have[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
