// Package circuit defines the textual circuit model used by xferbench: a
// gate vocabulary (GateSet), an ordered gate sequence (Circuit) and a parser
// for the OPENQASM 2.0 subset the rule databases are written in.
//
// The gate vocabulary is an explicit value passed to every parse and compile
// call; there is no process-wide gate context.
package circuit

import (
	"fmt"
	"sort"
	"strings"
)

// GateDef describes one gate type: its name, the number of qubit operands
// and the number of real parameters.
type GateDef struct {
	Name    string
	NbQubit int
	NbParam int
}

// GateSet is the vocabulary of gate types a parser or rule compiler accepts.
type GateSet map[string]GateDef

// NewGateSet builds a GateSet from gate definitions.
func NewGateSet(defs ...GateDef) GateSet {
	s := make(GateSet, len(defs))
	for _, d := range defs {
		s[d.Name] = d
	}
	return s
}

// Lookup returns the definition of the named gate.
func (s GateSet) Lookup(name string) (GateDef, bool) {
	d, ok := s[name]
	return d, ok
}

// Names returns the gate names in deterministic (sorted) order.
func (s GateSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultGateSet returns the Clifford+T style vocabulary the shipped rule
// databases use: single-qubit h, x, z, s, sdg, t, tdg, the parameterized rz
// rotation and the two-qubit cx.
func DefaultGateSet() GateSet {
	return NewGateSet(
		GateDef{Name: "h", NbQubit: 1},
		GateDef{Name: "x", NbQubit: 1},
		GateDef{Name: "z", NbQubit: 1},
		GateDef{Name: "s", NbQubit: 1},
		GateDef{Name: "sdg", NbQubit: 1},
		GateDef{Name: "t", NbQubit: 1},
		GateDef{Name: "tdg", NbQubit: 1},
		GateDef{Name: "rz", NbQubit: 1, NbParam: 1},
		GateDef{Name: "cx", NbQubit: 2},
	)
}

// Gate is one gate instance: a gate type applied to concrete qubits with
// concrete parameter values.
type Gate struct {
	Name   string
	Qubits []int
	Params []float64
}

// Circuit is an ordered sequence of gates over NbQubits qubits. Program
// order is a valid topological order: a gate depends only on earlier gates
// that share one of its qubits.
type Circuit struct {
	NbQubits int
	Gates    []Gate
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	gates := make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		gates[i] = Gate{
			Name:   g.Name,
			Qubits: append([]int(nil), g.Qubits...),
			Params: append([]float64(nil), g.Params...),
		}
	}
	return &Circuit{NbQubits: c.NbQubits, Gates: gates}
}

// Validate checks the circuit against a gate set: every gate must be in the
// vocabulary, with matching qubit and parameter arity, and qubit operands
// must be distinct and in range.
func (c *Circuit) Validate(set GateSet) error {
	for i, g := range c.Gates {
		def, ok := set.Lookup(g.Name)
		if !ok {
			return fmt.Errorf("gate %d: unknown gate %q", i, g.Name)
		}
		if len(g.Qubits) != def.NbQubit {
			return fmt.Errorf("gate %d (%s): got %d qubit operands, want %d", i, g.Name, len(g.Qubits), def.NbQubit)
		}
		if len(g.Params) != def.NbParam {
			return fmt.Errorf("gate %d (%s): got %d parameters, want %d", i, g.Name, len(g.Params), def.NbParam)
		}
		seen := make(map[int]struct{}, len(g.Qubits))
		for _, q := range g.Qubits {
			if q < 0 || q >= c.NbQubits {
				return fmt.Errorf("gate %d (%s): qubit %d out of range [0,%d)", i, g.Name, q, c.NbQubits)
			}
			if _, dup := seen[q]; dup {
				return fmt.Errorf("gate %d (%s): duplicate qubit operand %d", i, g.Name, q)
			}
			seen[q] = struct{}{}
		}
	}
	return nil
}

// QASM serializes the circuit as an OPENQASM 2.0 program over a single
// register q. Parsing the output with the same gate set round-trips.
func (c *Circuit) QASM() string {
	var sbb strings.Builder
	sbb.WriteString("OPENQASM 2.0;\n")
	sbb.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&sbb, "qreg q[%d];\n", c.NbQubits)
	for _, g := range c.Gates {
		sbb.WriteString(g.Name)
		if len(g.Params) > 0 {
			sbb.WriteByte('(')
			for i, p := range g.Params {
				if i > 0 {
					sbb.WriteByte(',')
				}
				fmt.Fprintf(&sbb, "%g", p)
			}
			sbb.WriteByte(')')
		}
		sbb.WriteByte(' ')
		for i, q := range g.Qubits {
			if i > 0 {
				sbb.WriteString(", ")
			}
			fmt.Fprintf(&sbb, "q[%d]", q)
		}
		sbb.WriteString(";\n")
	}
	return sbb.String()
}
