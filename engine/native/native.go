// Package native is the in-tree implementation of the engine capability,
// built on the circuit parser, the operation graph and the xfer rule
// compiler.
package native

import (
	"fmt"

	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/debug"
	"github.com/xferbench/xferbench/engine"
	"github.com/xferbench/xferbench/graph"
	"github.com/xferbench/xferbench/xfer"
)

// Engine implements engine.Engine. The zero value is ready to use.
type Engine struct{}

// New returns a native matching engine.
func New() *Engine { return &Engine{} }

// ParseGraph parses circuit text and builds its operation graph.
func (*Engine) ParseGraph(set circuit.GateSet, src string) (engine.Graph, error) {
	c, err := circuit.Parse(set, src)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(set); err != nil {
		return nil, fmt.Errorf("validate circuit: %w", err)
	}
	return &nativeGraph{g: graph.New(c)}, nil
}

// CompileRules compiles each pattern independently; the resulting set has
// exactly len(patterns) rules in input order.
func (*Engine) CompileRules(set circuit.GateSet, patterns []*circuit.Circuit) (engine.RuleSet, error) {
	xfers, err := xfer.CompileAll(set, patterns)
	if err != nil {
		return nil, err
	}
	return &ruleSet{xfers: xfers}, nil
}

type nativeGraph struct {
	g *graph.Graph
}

func (ng *nativeGraph) Ops() []engine.Op {
	ops := ng.g.Ops()
	out := make([]engine.Op, len(ops))
	for i, op := range ops {
		out[i] = engine.Op{Index: op.Index()}
	}
	return out
}

func (ng *nativeGraph) GateCount() int { return ng.g.GateCount() }

func (ng *nativeGraph) Applicable(r engine.Rule, op engine.Op) bool {
	x, ok := r.(*xfer.Xfer)
	debug.Assert(ok, "rule %T was not compiled by the native engine", r)
	return x.Applicable(ng.g, ng.g.OpAt(op.Index))
}

func (ng *nativeGraph) Close() error { return ng.g.Close() }

type ruleSet struct {
	xfers  []*xfer.Xfer
	closed bool
}

func (rs *ruleSet) Len() int { return len(rs.xfers) }

func (rs *ruleSet) At(i int) engine.Rule {
	debug.Assert(!rs.closed, "rule set used after Close")
	return rs.xfers[i]
}

func (rs *ruleSet) Close() error {
	debug.Assert(!rs.closed, "rule set closed twice")
	rs.closed = true
	rs.xfers = nil
	return nil
}
