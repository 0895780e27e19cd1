package xfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xferbench/xferbench/circuit"
)

func TestCompileAll(t *testing.T) {
	set := circuit.DefaultGateSet()
	patterns := []*circuit.Circuit{
		{NbQubits: 1, Gates: []circuit.Gate{{Name: "h", Qubits: []int{0}}}},
		{NbQubits: 2, Gates: []circuit.Gate{{Name: "cx", Qubits: []int{0, 1}}}},
		{NbQubits: 1, Gates: []circuit.Gate{
			{Name: "t", Qubits: []int{0}},
			{Name: "tdg", Qubits: []int{0}},
		}},
	}

	xfers, err := CompileAll(set, patterns)
	require.NoError(t, err)
	require.Len(t, xfers, len(patterns), "N patterns must yield exactly N rules")

	for i, x := range xfers {
		assert.Equal(t, i, x.SourceIndex(), "rule %d traces to its source pattern", i)
		assert.Equal(t, len(patterns[i].Gates), x.NbOps())
		assert.NotEmpty(t, x.Name())
	}
	assert.NotEqual(t, xfers[0].Name(), xfers[1].Name())
}

func TestCompileDegeneratePattern(t *testing.T) {
	set := circuit.DefaultGateSet()
	_, err := Compile(set, &circuit.Circuit{NbQubits: 1}, "empty", 0)
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, cerr.Index)
}

func TestCompileInvalidPattern(t *testing.T) {
	set := circuit.DefaultGateSet()
	bad := &circuit.Circuit{NbQubits: 1, Gates: []circuit.Gate{{Name: "ccx", Qubits: []int{0}}}}

	_, err := CompileAll(set, []*circuit.Circuit{bad})
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestCompileCopiesPattern(t *testing.T) {
	set := circuit.DefaultGateSet()
	p := &circuit.Circuit{NbQubits: 1, Gates: []circuit.Gate{
		{Name: "rz", Qubits: []int{0}, Params: []float64{0.5}},
	}}
	x, err := Compile(set, p, "r", 0)
	require.NoError(t, err)

	p.Gates[0].Params[0] = 0.25
	assert.Equal(t, 0.5, x.ops[0].gate.Params[0], "compiled rule must not alias the pattern")
}
