package progression

import (
	"fmt"
	"math"
	"strings"
)

// Trait is a behavior modifier flag carried by a character.
type Trait string

const (
	TraitDisciplined Trait = "disciplined"
	TraitPersistent  Trait = "persistent"
	TraitFocused     Trait = "focused"
	TraitAthletic    Trait = "athletic"
	TraitCharismatic Trait = "charismatic"
	TraitFrugal      Trait = "frugal"
)

func (t Trait) IsValid() bool {
	switch t {
	case TraitDisciplined, TraitPersistent, TraitFocused, TraitAthletic, TraitCharismatic, TraitFrugal:
		return true
	default:
		return false
	}
}

// ParseTraits validates a list of trait names and drops duplicates.
func ParseTraits(in []string) ([]Trait, error) {
	seen := make(map[Trait]bool, len(in))
	out := make([]Trait, 0, len(in))
	for _, raw := range in {
		t := Trait(strings.TrimSpace(strings.ToLower(raw)))
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: unknown trait %q", ErrInvalidArgument, raw)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// Class is the avatar's player class.
type Class string

const (
	ClassNone     Class = ""
	ClassScholar  Class = "Scholar"
	ClassWarrior  Class = "Warrior"
	ClassBard     Class = "Bard"
	ClassMerchant Class = "Merchant"
)

// ParseClass validates a class name; the empty string means no class.
func ParseClass(input string) (Class, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "":
		return ClassNone, nil
	case "scholar":
		return ClassScholar, nil
	case "warrior":
		return ClassWarrior, nil
	case "bard":
		return ClassBard, nil
	case "merchant":
		return ClassMerchant, nil
	default:
		return "", fmt.Errorf("%w: unknown player class %q", ErrInvalidArgument, input)
	}
}

// Attribute returns the attribute favored by the class.
func (c Class) Attribute() (Attribute, bool) {
	switch c {
	case ClassScholar:
		return AttributeMind, true
	case ClassWarrior:
		return AttributeBody, true
	case ClassBard:
		return AttributeSocial, true
	case ClassMerchant:
		return AttributeFinance, true
	default:
		return "", false
	}
}

const (
	classBonus           = 1.10
	disciplinedBonus     = 1.10
	disciplinedMinStreak = 3
	affinityBonus        = 1.20
)

func traitAffinity(t Trait) (Attribute, bool) {
	switch t {
	case TraitFocused:
		return AttributeMind, true
	case TraitAthletic:
		return AttributeBody, true
	case TraitCharismatic:
		return AttributeSocial, true
	case TraitFrugal:
		return AttributeFinance, true
	default:
		return "", false
	}
}

// GrantContext carries what multiplier conditions may inspect.
type GrantContext struct {
	Attribute Attribute
	Streak    int
}

// Multipliers collects every scalar that applies to a grant. Talent bonuses come from the tree.
func Multipliers(c Character, tree *TalentTree, gc GrantContext) []float64 {
	var out []float64
	for _, t := range c.Traits {
		switch t {
		case TraitDisciplined:
			if gc.Streak >= disciplinedMinStreak {
				out = append(out, disciplinedBonus)
			}
		case TraitFocused, TraitAthletic, TraitCharismatic, TraitFrugal:
			if a, ok := traitAffinity(t); ok && a == gc.Attribute {
				out = append(out, affinityBonus)
			}
		case TraitPersistent:
			// streak floor only
		}
	}
	if a, ok := c.PlayerClass.Attribute(); ok && a == gc.Attribute {
		out = append(out, classBonus)
	}
	if tree != nil {
		out = append(out, tree.Multipliers(c.UnlockedTalents, gc.Attribute)...)
	}
	return out
}

// ScaleXP applies multipliers to a base amount. The product is commutative, so order never matters.
func ScaleXP(base int, multipliers ...float64) int {
	factor := 1.0
	for _, m := range multipliers {
		factor *= m
	}
	return int(math.Round(float64(base) * factor))
}
