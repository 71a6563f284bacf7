package progression

import (
	"fmt"
	"sort"
	"strings"
)

// TalentCategory groups nodes into branches of the tree.
type TalentCategory string

const (
	TalentCore    TalentCategory = "core"
	TalentMind    TalentCategory = "mind"
	TalentBody    TalentCategory = "body"
	TalentSocial  TalentCategory = "social"
	TalentFinance TalentCategory = "finance"
)

func (c TalentCategory) IsValid() bool {
	switch c {
	case TalentCore, TalentMind, TalentBody, TalentSocial, TalentFinance:
		return true
	default:
		return false
	}
}

// NodeState is the display state of a talent node.
type NodeState string

const (
	NodeLocked     NodeState = "locked"
	NodeUnlockable NodeState = "unlockable"
	NodeUnlocked   NodeState = "unlocked"
)

// TalentBonus scales XP granted to an attribute once the node is unlocked.
// An empty attribute applies to every grant.
type TalentBonus struct {
	Attribute Attribute `json:"attribute,omitempty" yaml:"attribute"`
	Percent   int       `json:"percent" yaml:"percent"`
}

// Position is layout data only.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type TalentNode struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Category    TalentCategory `json:"category" yaml:"category"`
	Cost        int            `json:"cost" yaml:"cost"`
	Requires    []string       `json:"requires" yaml:"requires"`
	Bonus       *TalentBonus   `json:"bonus,omitempty" yaml:"bonus"`
	Position    Position       `json:"position" yaml:"position"`
}

// IsRoot reports whether the node has no prerequisites.
func (n TalentNode) IsRoot() bool { return len(n.Requires) == 0 }

// TalentTree is a validated, acyclic set of talent nodes.
type TalentTree struct {
	nodes    map[string]TalentNode
	order    []string
	children map[string][]string
}

// NewTalentTree validates the nodes and returns the tree. Duplicate ids, non-positive costs,
// unknown prerequisites and cycles are rejected.
func NewTalentTree(nodes []TalentNode) (*TalentTree, error) {
	t := &TalentTree{
		nodes:    make(map[string]TalentNode, len(nodes)),
		children: make(map[string][]string),
	}
	for _, n := range nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			return nil, fmt.Errorf("%w: talent id is required", ErrInvalidArgument)
		}
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate talent id %q", ErrInvalidArgument, n.ID)
		}
		if n.Cost < 1 {
			return nil, fmt.Errorf("%w: talent %q cost must be >= 1", ErrInvalidArgument, n.ID)
		}
		if n.Category == "" {
			n.Category = TalentCore
		}
		if !n.Category.IsValid() {
			return nil, fmt.Errorf("%w: talent %q has unknown category %q", ErrInvalidArgument, n.ID, n.Category)
		}
		if n.Bonus != nil {
			if n.Bonus.Attribute != "" && !n.Bonus.Attribute.IsValid() {
				return nil, fmt.Errorf("%w: talent %q bonus attribute %q", ErrInvalidArgument, n.ID, n.Bonus.Attribute)
			}
			if n.Bonus.Percent <= 0 {
				return nil, fmt.Errorf("%w: talent %q bonus percent must be positive", ErrInvalidArgument, n.ID)
			}
		}
		n.Requires = append([]string(nil), n.Requires...)
		t.nodes[n.ID] = n
	}

	indegree := make(map[string]int, len(t.nodes))
	for id, n := range t.nodes {
		indegree[id] += 0
		for _, req := range n.Requires {
			if _, ok := t.nodes[req]; !ok {
				return nil, fmt.Errorf("%w: talent %q requires unknown talent %q", ErrInvalidArgument, id, req)
			}
			if req == id {
				return nil, fmt.Errorf("%w: talent %q requires itself", ErrTalentCycle, id)
			}
			t.children[req] = append(t.children[req], id)
			indegree[id]++
		}
	}

	// Kahn's algorithm; anything left over sits on a cycle.
	queue := make([]string, 0, len(t.nodes))
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		t.order = append(t.order, id)
		kids := append([]string(nil), t.children[id]...)
		sort.Strings(kids)
		for _, child := range kids {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	if len(t.order) != len(t.nodes) {
		var stuck []string
		for id, d := range indegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %s", ErrTalentCycle, strings.Join(stuck, ", "))
	}
	for id := range t.children {
		sort.Strings(t.children[id])
	}
	return t, nil
}

// Node returns the node with the given id.
func (t *TalentTree) Node(id string) (TalentNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns every node in topological order (prerequisites first).
func (t *TalentTree) Nodes() []TalentNode {
	out := make([]TalentNode, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Len is the number of nodes.
func (t *TalentTree) Len() int { return len(t.nodes) }

// PointsForLevel is the lifetime talent point income: one point per level above 1.
func PointsForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return level - 1
}

// SpentPoints sums the cost of the unlocked nodes known to the tree.
func (t *TalentTree) SpentPoints(unlocked []string) int {
	spent := 0
	seen := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := t.nodes[id]; ok {
			spent += n.Cost
		}
	}
	return spent
}

// AvailablePoints derives the spendable balance from the level and the unlocked set.
func (t *TalentTree) AvailablePoints(level int, unlocked []string) int {
	p := PointsForLevel(level) - t.SpentPoints(unlocked)
	if p < 0 {
		return 0
	}
	return p
}

// Unlockable reports whether every prerequisite is unlocked and points cover the cost.
func Unlockable(n TalentNode, unlocked map[string]bool, points int) bool {
	if unlocked[n.ID] {
		return false
	}
	for _, req := range n.Requires {
		if !unlocked[req] {
			return false
		}
	}
	return points >= n.Cost
}

// State resolves the display state of one node.
func (t *TalentTree) State(id string, unlocked map[string]bool, points int) NodeState {
	n, ok := t.nodes[id]
	switch {
	case !ok:
		return NodeLocked
	case unlocked[id]:
		return NodeUnlocked
	case Unlockable(n, unlocked, points):
		return NodeUnlockable
	default:
		return NodeLocked
	}
}

// Status resolves every node in one pass.
func (t *TalentTree) Status(level int, unlocked []string) map[string]NodeState {
	set := toSet(unlocked)
	points := t.AvailablePoints(level, unlocked)
	out := make(map[string]NodeState, len(t.nodes))
	for _, id := range t.order {
		out[id] = t.State(id, set, points)
	}
	return out
}

// Unlock spends points on a node. On any fault the character is returned unchanged.
// The second result lists children that became unlockable because of this unlock.
func (t *TalentTree) Unlock(c Character, id string) (Character, []string, error) {
	n, ok := t.nodes[id]
	if !ok {
		return c, nil, fmt.Errorf("%w: %q", ErrUnknownTalent, id)
	}
	set := c.unlockedSet()
	if set[id] {
		return c, nil, fmt.Errorf("%w: %q", ErrAlreadyUnlocked, id)
	}
	for _, req := range n.Requires {
		if !set[req] {
			return c, nil, fmt.Errorf("%w: %q requires %q", ErrUnmetPrerequisite, id, req)
		}
	}
	points := t.AvailablePoints(c.Level, c.UnlockedTalents)
	if points < n.Cost {
		return c, nil, fmt.Errorf("%w: %q costs %d, have %d", ErrInsufficientPoints, id, n.Cost, points)
	}

	out := c.Clone()
	out.UnlockedTalents = append(out.UnlockedTalents, id)
	sort.Strings(out.UnlockedTalents)
	out.TalentPoints = points - n.Cost

	set[id] = true
	var cascade []string
	for _, child := range t.children[id] {
		if set[child] {
			continue
		}
		if Unlockable(t.nodes[child], set, out.TalentPoints) {
			cascade = append(cascade, child)
		}
	}
	return out, cascade, nil
}

// Multipliers returns the XP scalars contributed by unlocked nodes for a grant to attr.
func (t *TalentTree) Multipliers(unlocked []string, attr Attribute) []float64 {
	var out []float64
	for _, id := range unlocked {
		n, ok := t.nodes[id]
		if !ok || n.Bonus == nil {
			continue
		}
		if n.Bonus.Attribute == "" || n.Bonus.Attribute == attr {
			out = append(out, 1+float64(n.Bonus.Percent)/100)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
