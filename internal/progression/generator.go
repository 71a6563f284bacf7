package progression

import (
	"math/rand/v2"
	"time"
)

const (
	generatedBaseXP  = 40
	generatedGapStep = 5
	generatedMinXP   = 40
	generatedMaxXP   = 200
)

var missionPool = map[Attribute][]string{
	AttributeMind: {
		"Read 20 pages of a book",
		"Study a new topic for 30 minutes",
		"Solve a logic puzzle",
		"Write a page in your journal",
		"Watch a lecture and take notes",
	},
	AttributeBody: {
		"Walk 5,000 steps",
		"Do a 20 minute workout",
		"Stretch for 15 minutes",
		"Drink 2 liters of water",
		"Sleep before midnight",
	},
	AttributeSocial: {
		"Call a friend you have not talked to in a while",
		"Send a thank-you message",
		"Have a meal with family",
		"Join a group activity",
		"Compliment a coworker",
	},
	AttributeFinance: {
		"Review this week's expenses",
		"Put money into savings",
		"Cancel an unused subscription",
		"Plan next month's budget",
		"Read an article about investing",
	},
}

// Generator synthesizes a mission targeting the weakest attribute.
type Generator struct {
	// pick returns a value in [0, n). Defaults to math/rand/v2.
	pick func(n int) int
	now  func() time.Time
}

// NewGenerator returns a generator backed by the global random source.
func NewGenerator() *Generator {
	return &Generator{pick: rand.IntN, now: time.Now}
}

// NewGeneratorWithPicker makes the choices deterministic for callers that need it.
func NewGeneratorWithPicker(pick func(n int) int, now func() time.Time) *Generator {
	g := NewGenerator()
	if pick != nil {
		g.pick = pick
	}
	if now != nil {
		g.now = now
	}
	return g
}

// GeneratedXP is the reward for a mission on the weakest attribute given the attribute gap.
func GeneratedXP(gap int) int {
	return clamp(generatedBaseXP+gap*generatedGapStep, generatedMinXP, generatedMaxXP)
}

// Weakest returns every attribute tied for the lowest value and the spread between
// the strongest and the weakest.
func Weakest(attrs Attributes) ([]Attribute, int) {
	lowest, highest := 0, 0
	for i, a := range AllAttributes {
		v := attrs[a]
		if i == 0 || v < lowest {
			lowest = v
		}
		if i == 0 || v > highest {
			highest = v
		}
	}
	var tied []Attribute
	for _, a := range AllAttributes {
		if attrs[a] == lowest {
			tied = append(tied, a)
		}
	}
	return tied, highest - lowest
}

// Generate builds a pending mission. It reads the attributes and never mutates them.
func (g *Generator) Generate(attrs Attributes) Mission {
	tied, gap := Weakest(attrs)
	attr := tied[g.pick(len(tied))]
	pool := missionPool[attr]
	title := pool[g.pick(len(pool))]

	m, _ := NewMission(MissionInput{
		Title:       title,
		Description: "Generated to train your weakest attribute: " + string(attr),
		XPValue:     GeneratedXP(gap),
		Attribute:   attr,
	}, g.now())
	m.Generated = true
	return m
}
