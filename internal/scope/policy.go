package scope

import (
	"fmt"
	"strings"
)

// Policy decides how a key bound at several levels of a scope chain is
// reported during iteration.
type Policy uint8

const (
	// PolicyVisible emits each key once, at the position of its outermost
	// binding, carrying the value visible from the iterated map.
	PolicyVisible Policy = iota
	// PolicyAll emits every level's own bindings, duplicates included.
	PolicyAll
)

// String returns the string representation of Policy.
func (p Policy) String() string {
	switch p {
	case PolicyVisible:
		return "visible"
	case PolicyAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "visible":
		return PolicyVisible, nil
	case "all":
		return PolicyAll, nil
	default:
		return PolicyVisible, fmt.Errorf("invalid iteration policy: %q (expected: visible|all)", s)
	}
}
