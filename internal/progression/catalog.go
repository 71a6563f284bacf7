package progression

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed talents.yaml
var defaultTalents []byte

//go:embed achievements.yaml
var defaultAchievements []byte

type talentCatalog struct {
	Version int          `yaml:"version"`
	Talents []TalentNode `yaml:"talents"`
}

type achievementCatalog struct {
	Version      int           `yaml:"version"`
	Achievements []Achievement `yaml:"achievements"`
}

// ParseTalentTree decodes a YAML talent catalog and validates the graph.
func ParseTalentTree(data []byte) (*TalentTree, error) {
	var cat talentCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode talent catalog: %w", err)
	}
	return NewTalentTree(cat.Talents)
}

// ParseAchievements decodes a YAML achievement catalog.
func ParseAchievements(data []byte, loc *time.Location) (*Evaluator, error) {
	var cat achievementCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode achievement catalog: %w", err)
	}
	for i := range cat.Achievements {
		r, err := ParseRarity(string(cat.Achievements[i].Rarity))
		if err != nil {
			return nil, err
		}
		cat.Achievements[i].Rarity = r
		if a := cat.Achievements[i].Rule.Attribute; a != "" {
			parsed, err := ParseAttribute(string(a))
			if err != nil {
				return nil, err
			}
			cat.Achievements[i].Rule.Attribute = parsed
		}
	}
	return NewEvaluator(cat.Achievements, loc)
}

// Rules bundles the catalogs every state transition needs.
type Rules struct {
	Talents      *TalentTree
	Achievements *Evaluator
	Generator    *Generator
	Location     *time.Location
}

// DefaultRules loads the embedded catalogs. Day boundaries use loc (UTC when nil).
func DefaultRules(loc *time.Location) (*Rules, error) {
	if loc == nil {
		loc = time.UTC
	}
	tree, err := ParseTalentTree(defaultTalents)
	if err != nil {
		return nil, err
	}
	eval, err := ParseAchievements(defaultAchievements, loc)
	if err != nil {
		return nil, err
	}
	return &Rules{
		Talents:      tree,
		Achievements: eval,
		Generator:    NewGenerator(),
		Location:     loc,
	}, nil
}

// MustDefaultRules panics if the embedded catalogs are broken.
func MustDefaultRules(loc *time.Location) *Rules {
	r, err := DefaultRules(loc)
	if err != nil {
		panic(err)
	}
	return r
}
