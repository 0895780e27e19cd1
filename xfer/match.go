package xfer

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/xferbench/xferbench/graph"
)

// paramEps is the tolerance when comparing gate parameters. Rule databases
// round-trip parameters through text, so exact float equality is too strict.
const paramEps = 1e-9

// Applicable reports whether the rule matches the target graph with its
// first pattern operation rooted at root, and the matched subgraph is
// convex. It never fails on well-formed inputs; a corrupted graph or rule
// handle is a precondition violation.
func (x *Xfer) Applicable(g *graph.Graph, root graph.Op) bool {
	if len(x.ops) > g.GateCount() {
		return false
	}
	m := matcher{
		x:       x,
		g:       g,
		root:    root.Index(),
		mapping: make([]int, len(x.ops)),
		qmap:    make([]int, x.nbQb),
		gqmap:   make([]int, g.NbQubits()),
		used:    bitset.New(uint(g.GateCount())),
	}
	for i := range m.mapping {
		m.mapping[i] = -1
	}
	for i := range m.qmap {
		m.qmap[i] = -1
	}
	for i := range m.gqmap {
		m.gqmap[i] = -1
	}
	return m.match(0)
}

type matcher struct {
	x    *Xfer
	g    *graph.Graph
	root int

	mapping []int          // pattern op -> graph op
	qmap    []int          // pattern qubit -> graph qubit
	gqmap   []int          // graph qubit -> pattern qubit (injectivity)
	used    *bitset.BitSet // graph ops already claimed
}

// match places pattern op j and recurses. Pattern ops are tried in
// topological order, so every wire predecessor of op j is already mapped;
// an anchored op therefore has exactly one possible placement.
func (m *matcher) match(j int) bool {
	if j == len(m.x.ops) {
		return m.convex()
	}
	op := &m.x.ops[j]

	if j == 0 {
		return m.tryCandidate(0, m.root)
	}
	if op.anchored {
		k := 0
		for op.prev[k] == -1 {
			k++
		}
		pred := m.g.OpAt(m.mapping[op.prev[k]])
		c, ok := m.g.SuccAt(pred, op.prevPos[k])
		if !ok {
			return false
		}
		return m.tryCandidate(j, c.Index())
	}
	// pattern op on fresh wires: any unclaimed graph op may host it
	for c := 0; c < m.g.GateCount(); c++ {
		if m.tryCandidate(j, c) {
			return true
		}
	}
	return false
}

func (m *matcher) tryCandidate(j, c int) bool {
	if m.used.Test(uint(c)) {
		return false
	}
	op := &m.x.ops[j]
	gate := m.g.GateAt(m.g.OpAt(c))

	if gate.Name != op.gate.Name {
		return false
	}
	for k, p := range op.gate.Params {
		if math.Abs(gate.Params[k]-p) > paramEps {
			return false
		}
	}

	// bind qubits; remember fresh bindings for backtracking
	var bound []int
	undo := func() {
		for _, pq := range bound {
			m.gqmap[m.qmap[pq]] = -1
			m.qmap[pq] = -1
		}
	}
	for k, pq := range op.gate.Qubits {
		gq := gate.Qubits[k]
		switch {
		case m.qmap[pq] == -1 && m.gqmap[gq] == -1:
			m.qmap[pq] = gq
			m.gqmap[gq] = pq
			bound = append(bound, pq)
		case m.qmap[pq] != gq:
			undo()
			return false
		}
	}

	// every pattern-internal wire edge must be a direct graph edge
	for k, prev := range op.prev {
		if prev == -1 {
			continue
		}
		p, ok := m.g.PredAt(m.g.OpAt(c), k)
		if !ok || p.Index() != m.mapping[prev] {
			undo()
			return false
		}
	}

	m.mapping[j] = c
	m.used.Set(uint(c))
	if m.match(j + 1) {
		return true
	}
	m.used.Clear(uint(c))
	m.mapping[j] = -1
	undo()
	return false
}

func (m *matcher) convex() bool {
	matched := bitset.New(uint(m.g.GateCount()))
	for _, c := range m.mapping {
		matched.Set(uint(c))
	}
	return m.g.Convex(matched)
}
