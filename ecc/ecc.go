// Package ecc loads persisted equivalence-class databases and expands them
// into rewrite patterns.
//
// A database is a JSON file mapping class identifiers to lists of circuit
// fragments declared structurally equivalent:
//
//	{"classes": {"3_6-17": [
//	    {"qubits": 2, "gates": [["h", [0], []], ["cx", [0, 1], []]]},
//	    ...
//	]}}
//
// Classes are only a source of patterns; they are not retained after
// expansion.
package ecc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/logger"
)

// LoadError reports a missing or malformed equivalence-class file. A load
// failure never yields a partially populated class sequence.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load equivalence classes %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Class is one equivalence class: an identifier and the circuits declared
// equivalent under it.
type Class struct {
	ID       string
	Circuits []*circuit.Circuit
}

type fileFormat struct {
	Classes map[string][]classCircuit `json:"classes"`
}

type classCircuit struct {
	Qubits int        `json:"qubits"`
	Gates  []gateJSON `json:"gates"`
}

// gateJSON is the on-disk triple ["name", [qubits...], [params...]].
type gateJSON struct {
	Name   string
	Qubits []int
	Params []float64
}

func (g *gateJSON) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("gate entry has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &g.Name); err != nil {
		return fmt.Errorf("gate name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &g.Qubits); err != nil {
		return fmt.Errorf("gate %s qubits: %w", g.Name, err)
	}
	if err := json.Unmarshal(raw[2], &g.Params); err != nil {
		return fmt.Errorf("gate %s params: %w", g.Name, err)
	}
	return nil
}

// Load reads an equivalence-class database and validates every circuit
// against the gate set. Classes are returned sorted by identifier so the
// expansion order is reproducible across runs on the same file.
func Load(set circuit.GateSet, path string) ([]Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(ff.Classes) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("no classes")}
	}

	ids := make([]string, 0, len(ff.Classes))
	for id := range ff.Classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	classes := make([]Class, 0, len(ids))
	nbCircuits := 0
	for _, id := range ids {
		class := Class{ID: id}
		for i, cc := range ff.Classes[id] {
			c := &circuit.Circuit{NbQubits: cc.Qubits}
			for _, g := range cc.Gates {
				c.Gates = append(c.Gates, circuit.Gate{Name: g.Name, Qubits: g.Qubits, Params: g.Params})
			}
			if err := c.Validate(set); err != nil {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("class %s circuit %d: %w", id, i, err)}
			}
			class.Circuits = append(class.Circuits, c)
		}
		nbCircuits += len(class.Circuits)
		classes = append(classes, class)
	}

	log := logger.Logger()
	log.Debug().Str("path", path).Int("classes", len(classes)).Int("circuits", nbCircuits).Msg("loaded equivalence classes")
	return classes, nil
}

// Expand flattens every circuit of every class into one ordered pattern
// sequence: class order first, then within-class order.
func Expand(classes []Class) []*circuit.Circuit {
	var patterns []*circuit.Circuit
	for _, class := range classes {
		patterns = append(patterns, class.Circuits...)
	}
	return patterns
}
