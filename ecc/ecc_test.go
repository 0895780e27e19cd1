package ecc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xferbench/xferbench/circuit"
)

const validDB = `{
  "classes": {
    "b-class": [
      {"qubits": 1, "gates": [["t", [0], []], ["tdg", [0], []]]}
    ],
    "a-class": [
      {"qubits": 2, "gates": [["h", [0], []], ["cx", [0, 1], []]]},
      {"qubits": 1, "gates": [["rz", [0], [0.5]]]}
    ]
  }
}`

func writeDB(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eccs.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoad(t *testing.T) {
	classes, err := Load(circuit.DefaultGateSet(), writeDB(t, validDB))
	require.NoError(t, err)
	require.Len(t, classes, 2)

	// classes come back sorted by identifier
	assert.Equal(t, "a-class", classes[0].ID)
	assert.Equal(t, "b-class", classes[1].ID)
	assert.Len(t, classes[0].Circuits, 2)
	assert.Len(t, classes[1].Circuits, 1)

	c := classes[0].Circuits[0]
	assert.Equal(t, 2, c.NbQubits)
	require.Len(t, c.Gates, 2)
	assert.Equal(t, "cx", c.Gates[1].Name)
	assert.Equal(t, []int{0, 1}, c.Gates[1].Qubits)
}

func TestLoadErrors(t *testing.T) {
	set := circuit.DefaultGateSet()

	for name, contents := range map[string]string{
		"malformed json": `{"classes": {`,
		"no classes":     `{"classes": {}}`,
		"bad gate entry": `{"classes": {"c": [{"qubits": 1, "gates": [["h", [0]]]}]}}`,
		"unknown gate":   `{"classes": {"c": [{"qubits": 1, "gates": [["ccz", [0], []]]}]}}`,
		"out of range":   `{"classes": {"c": [{"qubits": 1, "gates": [["h", [3], []]]}]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			classes, err := Load(set, writeDB(t, contents))
			require.Error(t, err)
			assert.Nil(t, classes, "no partially populated sequence")

			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(circuit.DefaultGateSet(), filepath.Join(t.TempDir(), "nope.json"))
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
}

func TestExpand(t *testing.T) {
	classes, err := Load(circuit.DefaultGateSet(), writeDB(t, validDB))
	require.NoError(t, err)

	patterns := Expand(classes)
	require.Len(t, patterns, 3)
	// class order, then within-class order
	assert.Equal(t, "h", patterns[0].Gates[0].Name)
	assert.Equal(t, "rz", patterns[1].Gates[0].Name)
	assert.Equal(t, "t", patterns[2].Gates[0].Name)
}
