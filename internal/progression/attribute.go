package progression

import (
	"fmt"
	"strings"
)

// Attribute is one of the four persistent character dimensions.
type Attribute string

const (
	AttributeMind    Attribute = "Mind"
	AttributeBody    Attribute = "Body"
	AttributeSocial  Attribute = "Social"
	AttributeFinance Attribute = "Finance"
)

// AllAttributes lists the closed attribute set in display order.
var AllAttributes = []Attribute{AttributeMind, AttributeBody, AttributeSocial, AttributeFinance}

func (a Attribute) IsValid() bool {
	switch a {
	case AttributeMind, AttributeBody, AttributeSocial, AttributeFinance:
		return true
	default:
		return false
	}
}

// ParseAttribute maps user input (English or the legacy Portuguese document keys) to an Attribute.
func ParseAttribute(input string) (Attribute, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "mind", "mente":
		return AttributeMind, nil
	case "body", "corpo":
		return AttributeBody, nil
	case "social":
		return AttributeSocial, nil
	case "finance", "financas", "finanças":
		return AttributeFinance, nil
	default:
		return "", fmt.Errorf("%w: unknown attribute %q", ErrInvalidArgument, input)
	}
}

// Attributes holds the per-attribute counters. Every key of AllAttributes is always present.
type Attributes map[Attribute]int

// NewAttributes returns a zeroed attribute set.
func NewAttributes() Attributes {
	out := make(Attributes, len(AllAttributes))
	for _, a := range AllAttributes {
		out[a] = 0
	}
	return out
}

// AttributesFromMap validates a loosely keyed map (as stored in the remote document).
// Missing keys default to zero; unknown keys and negative values are rejected.
func AttributesFromMap(in map[string]int) (Attributes, error) {
	out := NewAttributes()
	for k, v := range in {
		a, err := ParseAttribute(k)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: attribute %s is negative", ErrInvalidArgument, a)
		}
		out[a] = v
	}
	return out, nil
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ToMap converts to the document representation.
func (a Attributes) ToMap() map[string]int {
	out := make(map[string]int, len(a))
	for k, v := range a {
		out[string(k)] = v
	}
	return out
}
