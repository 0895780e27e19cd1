// Package graph builds directed operation graphs from circuits.
//
// Nodes are gate instances; edges follow the per-qubit wire chains, so op u
// has an edge to op v exactly when v is the next operation touching one of
// u's qubits. Program order of the source circuit is a valid topological
// order and is what Ops returns, which keeps enumeration deterministic and
// restartable.
package graph

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/debug"
)

// Op is a lightweight handle to one operation. It is only valid while the
// Graph it came from is alive.
type Op struct {
	idx int
}

// Index returns the operation's position in the topological order.
func (op Op) Index() int { return op.idx }

type node struct {
	gate circuit.Gate
	// prev[k] / next[k] are the node ids adjacent on the qubit wire at
	// operand position k, or -1 at the wire's ends.
	prev []int
	next []int
}

// Graph is an immutable operation graph owning its nodes. Release with
// Close; using a Graph after Close is a precondition violation and panics.
type Graph struct {
	nbQubits int
	nodes    []node
	closed   bool
}

// New builds the operation graph of a circuit. The circuit must have been
// validated against its gate set.
func New(c *circuit.Circuit) *Graph {
	g := &Graph{
		nbQubits: c.NbQubits,
		nodes:    make([]node, len(c.Gates)),
	}
	last := make([]int, c.NbQubits) // last node id seen per qubit
	for q := range last {
		last[q] = -1
	}
	for i, gate := range c.Gates {
		n := node{
			gate: gate,
			prev: make([]int, len(gate.Qubits)),
			next: make([]int, len(gate.Qubits)),
		}
		for k, q := range gate.Qubits {
			n.prev[k] = last[q]
			n.next[k] = -1
			if p := last[q]; p != -1 {
				g.nodes[p].next[operandPos(&g.nodes[p].gate, q)] = i
			}
			last[q] = i
		}
		g.nodes[i] = n
	}
	return g
}

func operandPos(gate *circuit.Gate, qubit int) int {
	for k, q := range gate.Qubits {
		if q == qubit {
			return k
		}
	}
	debug.Assert(false, "qubit %d not an operand of gate %s", qubit, gate.Name)
	return -1
}

func (g *Graph) assertAlive() {
	debug.Assert(!g.closed, "graph used after Close")
}

// Close releases the graph. Safe to call once on any graph, including one
// that was never used.
func (g *Graph) Close() error {
	g.assertAlive()
	g.closed = true
	g.nodes = nil
	return nil
}

// NbQubits returns the number of qubits the circuit acts on.
func (g *Graph) NbQubits() int {
	g.assertAlive()
	return g.nbQubits
}

// GateCount returns the number of operations in the graph. It always equals
// len(Ops()).
func (g *Graph) GateCount() int {
	g.assertAlive()
	return len(g.nodes)
}

// OpAt returns the handle of the i-th operation in topological order.
func (g *Graph) OpAt(i int) Op {
	g.assertAlive()
	debug.Assert(i >= 0 && i < len(g.nodes), "op index %d out of range", i)
	return Op{idx: i}
}

// Ops returns the operations in deterministic topological order.
func (g *Graph) Ops() []Op {
	g.assertAlive()
	ops := make([]Op, len(g.nodes))
	for i := range ops {
		ops[i] = Op{idx: i}
	}
	return ops
}

// GateAt returns the gate of an operation. The returned value must not be
// mutated.
func (g *Graph) GateAt(op Op) *circuit.Gate {
	g.assertAlive()
	debug.Assert(op.idx >= 0 && op.idx < len(g.nodes), "op index %d out of range", op.idx)
	return &g.nodes[op.idx].gate
}

// PredAt returns the operation feeding op's operand position k, if any.
func (g *Graph) PredAt(op Op, k int) (Op, bool) {
	g.assertAlive()
	p := g.nodes[op.idx].prev[k]
	return Op{idx: p}, p != -1
}

// SuccAt returns the operation consuming op's output at operand position k,
// if any.
func (g *Graph) SuccAt(op Op, k int) (Op, bool) {
	g.assertAlive()
	n := g.nodes[op.idx].next[k]
	return Op{idx: n}, n != -1
}

// Convex reports whether the matched node set can be excised without
// breaking data-dependency order: no directed path may leave the set and
// re-enter it.
func (g *Graph) Convex(matched *bitset.BitSet) bool {
	g.assertAlive()

	visited := bitset.New(uint(len(g.nodes)))
	var stack []int

	// seed with the matched set's outside successors
	for i, ok := matched.NextSet(0); ok; i, ok = matched.NextSet(i + 1) {
		for _, s := range g.nodes[i].next {
			if s != -1 && !matched.Test(uint(s)) && !visited.Test(uint(s)) {
				visited.Set(uint(s))
				stack = append(stack, s)
			}
		}
	}

	// walk forward through outside nodes; reaching a matched node again
	// means the set is not convex
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.nodes[n].next {
			if s == -1 {
				continue
			}
			if matched.Test(uint(s)) {
				return false
			}
			if !visited.Test(uint(s)) {
				visited.Set(uint(s))
				stack = append(stack, s)
			}
		}
	}
	return true
}
