// Package engine defines the narrow boundary to the circuit-matching
// capability: parse a circuit into a graph, enumerate its operations,
// compile patterns into rules, and test rule applicability (including
// convexity) at an operation.
//
// The match engine and the benchmark orchestrator depend only on these
// interfaces, so the in-tree native implementation (engine/native) can be
// swapped for a test stub or an out-of-process binding. Graphs and rule
// sets are foreign-owned resources: callers must Close them, and using a
// handle after Close is a precondition violation, not a recoverable error.
package engine

import (
	"github.com/xferbench/xferbench/circuit"
)

// Op is a lightweight handle to one operation of a Graph. It is only valid
// while its owning Graph is alive.
type Op struct {
	// Index is the operation's position in the graph's topological order.
	Index int
}

// Rule is one compiled rewrite rule.
type Rule interface {
	// Name identifies the rule in reports and traces back to its source
	// pattern.
	Name() string
}

// RuleSet is an ordered batch of compiled rules sharing one lifetime.
type RuleSet interface {
	Len() int
	At(i int) Rule
	Close() error
}

// Graph is a loaded circuit as a directed operation graph.
type Graph interface {
	// Ops enumerates the operations in a deterministic topological order.
	// The enumeration is finite and restartable: successive calls yield the
	// same sequence.
	Ops() []Op
	// GateCount equals len(Ops()).
	GateCount() int
	// Applicable reports whether the rule's pattern matches rooted at op
	// and the matched subgraph is convex. It must not fail on well-formed
	// inputs.
	Applicable(r Rule, op Op) bool
	Close() error
}

// Engine is the four-operation capability the benchmark drives.
type Engine interface {
	// ParseGraph loads circuit text. On error no partial Graph is produced.
	ParseGraph(set circuit.GateSet, src string) (Graph, error)
	// CompileRules compiles patterns, in order, into a RuleSet of exactly
	// len(patterns) rules.
	CompileRules(set circuit.GateSet, patterns []*circuit.Circuit) (RuleSet, error)
}
