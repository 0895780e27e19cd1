package bench

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xferbench/xferbench/circuit"
)

// RandomCircuit draws a circuit of nbGates gates over nbQubits qubits from
// the gate set. Gate types with more qubit operands than the circuit has
// qubits are never drawn; a set where no gate fits is an error. Generation
// is fully determined by the rng state.
func RandomCircuit(rng *rand.Rand, set circuit.GateSet, nbQubits, nbGates int) (*circuit.Circuit, error) {
	var defs []circuit.GateDef
	for _, name := range set.Names() {
		def, _ := set.Lookup(name)
		if def.NbQubit <= nbQubits {
			defs = append(defs, def)
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no gate in the set fits %d qubit(s)", nbQubits)
	}
	c := &circuit.Circuit{NbQubits: nbQubits}
	for i := 0; i < nbGates; i++ {
		def := defs[rng.Intn(len(defs))]
		perm := rng.Perm(nbQubits)
		gate := circuit.Gate{Name: def.Name, Qubits: perm[:def.NbQubit]}
		for p := 0; p < def.NbParam; p++ {
			gate.Params = append(gate.Params, rng.Float64()*2*math.Pi)
		}
		c.Gates = append(c.Gates, gate)
	}
	return c, nil
}

// GenerateRandom writes a dataset of n random circuits with nbQubits qubits
// and nbGates gates each, seeded for reproducibility. When saveFiles is
// set, every circuit is also written as <i>.qasm.
func GenerateRandom(set circuit.GateSet, dir string, n, nbQubits, nbGates int, seed int64, saveFiles bool) (Dataset, int, error) {
	d := Dataset{dir: dir}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return d, 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
	}
	rng := rand.New(rand.NewSource(seed))
	patterns := make([]string, n)
	for i := 0; i < n; i++ {
		c, err := RandomCircuit(rng, set, nbQubits, nbGates)
		if err != nil {
			return d, 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
		}
		patterns[i] = c.QASM()
		if saveFiles {
			name := filepath.Join(dir, strconv.Itoa(i)+".qasm")
			if err := os.WriteFile(name, []byte(patterns[i]), 0600); err != nil {
				return d, 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
			}
		}
	}
	if err := d.writePatterns(patterns); err != nil {
		return d, 0, err
	}
	return d, n, nil
}
