// Package xfer compiles circuit rewrite patterns into reusable match rules.
//
// An Xfer is the compiled form of one source pattern paired with an empty
// target: everything needed to test, at a given operation of a target graph,
// whether the pattern matches there and whether the matched subgraph is
// convex. Xfers are immutable after compilation and independent of each
// other.
package xfer

import (
	"fmt"

	"github.com/xferbench/xferbench/circuit"
)

// CompileError reports a pattern that could not be compiled into a rule,
// e.g. a degenerate pattern with zero operations. Degenerate patterns are
// rejected rather than compiled into vacuously matching rules, so match
// counts never depend on trivial patterns in a dataset.
type CompileError struct {
	Index int // position of the pattern in the compile batch
	Name  string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile rule %s (pattern %d): %v", e.Name, e.Index, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Xfer is one compiled rewrite rule.
type Xfer struct {
	name string
	src  int // index of the source pattern in the compile batch
	ops  []patternOp
	nbQb int
}

type patternOp struct {
	gate circuit.Gate
	// prev[k] is the pattern op feeding operand position k, or -1 when the
	// wire enters the pattern there. prevPos[k] is the operand position of
	// the shared qubit on that feeding op.
	prev    []int
	prevPos []int
	// anchored is true when some earlier pattern op determines this op's
	// placement through a shared wire.
	anchored bool
}

// Name identifies the rule in reports; it traces back to the source pattern.
func (x *Xfer) Name() string { return x.name }

// SourceIndex returns the position of the source pattern in the batch the
// rule was compiled from.
func (x *Xfer) SourceIndex() int { return x.src }

// NbOps returns the number of operations in the rule's source pattern.
func (x *Xfer) NbOps() int { return len(x.ops) }

// Compile compiles one pattern into a rule. The pattern is copied;
// compilation shares no state with other rules.
func Compile(set circuit.GateSet, pattern *circuit.Circuit, name string, index int) (*Xfer, error) {
	if len(pattern.Gates) == 0 {
		return nil, &CompileError{Index: index, Name: name, Err: fmt.Errorf("degenerate pattern: zero operations")}
	}
	if err := pattern.Validate(set); err != nil {
		return nil, &CompileError{Index: index, Name: name, Err: err}
	}
	pattern = pattern.Clone()

	x := &Xfer{
		name: name,
		src:  index,
		ops:  make([]patternOp, len(pattern.Gates)),
		nbQb: pattern.NbQubits,
	}
	last := make([]int, pattern.NbQubits)    // last pattern op per qubit
	lastPos := make([]int, pattern.NbQubits) // its operand position for the qubit
	for q := range last {
		last[q] = -1
	}
	for i, gate := range pattern.Gates {
		op := patternOp{
			gate:    gate,
			prev:    make([]int, len(gate.Qubits)),
			prevPos: make([]int, len(gate.Qubits)),
		}
		for k, q := range gate.Qubits {
			op.prev[k] = last[q]
			op.prevPos[k] = lastPos[q]
			if last[q] != -1 {
				op.anchored = true
			}
			last[q] = i
			lastPos[q] = k
		}
		x.ops[i] = op
	}
	return x, nil
}

// CompileAll compiles a batch of patterns in order. It fails on the first
// pattern that does not compile; N patterns yield exactly N rules.
func CompileAll(set circuit.GateSet, patterns []*circuit.Circuit) ([]*Xfer, error) {
	xfers := make([]*Xfer, len(patterns))
	for i, p := range patterns {
		x, err := Compile(set, p, fmt.Sprintf("xfer-%d", i), i)
		if err != nil {
			return nil, err
		}
		xfers[i] = x
	}
	return xfers, nil
}
