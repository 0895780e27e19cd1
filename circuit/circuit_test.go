package circuit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	set := DefaultGateSet()

	ok := &Circuit{NbQubits: 2, Gates: []Gate{
		{Name: "h", Qubits: []int{0}},
		{Name: "cx", Qubits: []int{0, 1}},
		{Name: "rz", Qubits: []int{1}, Params: []float64{0.5}},
	}}
	require.NoError(t, ok.Validate(set))

	for name, c := range map[string]*Circuit{
		"unknown gate":   {NbQubits: 1, Gates: []Gate{{Name: "ccx", Qubits: []int{0}}}},
		"qubit arity":    {NbQubits: 2, Gates: []Gate{{Name: "cx", Qubits: []int{0}}}},
		"param arity":    {NbQubits: 1, Gates: []Gate{{Name: "rz", Qubits: []int{0}}}},
		"out of range":   {NbQubits: 1, Gates: []Gate{{Name: "h", Qubits: []int{1}}}},
		"negative qubit": {NbQubits: 1, Gates: []Gate{{Name: "h", Qubits: []int{-1}}}},
		"duplicate":      {NbQubits: 2, Gates: []Gate{{Name: "cx", Qubits: []int{1, 1}}}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate(set))
		})
	}
}

func TestClone(t *testing.T) {
	c := &Circuit{NbQubits: 2, Gates: []Gate{
		{Name: "rz", Qubits: []int{0}, Params: []float64{0.5}},
	}}
	clone := c.Clone()
	require.Equal(t, c, clone)

	clone.Gates[0].Qubits[0] = 1
	clone.Gates[0].Params[0] = 0.25
	assert.Equal(t, 0, c.Gates[0].Qubits[0], "clone must not alias the original")
	assert.Equal(t, 0.5, c.Gates[0].Params[0])
}

func TestGateSetNames(t *testing.T) {
	names := DefaultGateSet().Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "cx")
	assert.Contains(t, names, "rz")
}
