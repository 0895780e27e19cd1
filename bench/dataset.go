// Package bench drives benchmark runs: it owns datasets of rewrite
// patterns, iterates dataset x rule-set-size x repetition, invokes the
// match engine and collects result records.
package bench

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/ecc"
	"github.com/xferbench/xferbench/logger"
)

// patternsFile is the compiled blob holding a dataset's pattern texts,
// CBOR-encoded. Runs read the blob, not the individual circuit files.
const patternsFile = "patterns.bin"

// Dataset is a folder of rewrite-pattern circuits with a compiled
// patterns.bin blob.
type Dataset struct {
	dir string
}

// Open wraps a dataset folder. The folder is not touched until Patterns or
// Generate is called.
func Open(dir string) Dataset {
	return Dataset{dir: dir}
}

// Name is the dataset identifier used in result records.
func (d Dataset) Name() string {
	return filepath.Base(filepath.Clean(d.dir))
}

// Patterns decodes the compiled pattern blob and returns the pattern texts
// along with a fingerprint of the blob, so result records are traceable to
// the exact input bytes.
func (d Dataset) Patterns() ([]string, string, error) {
	blob, err := os.ReadFile(filepath.Join(d.dir, patternsFile))
	if err != nil {
		return nil, "", fmt.Errorf("dataset %s: %w", d.Name(), err)
	}
	var patterns []string
	if err := cbor.Unmarshal(blob, &patterns); err != nil {
		return nil, "", fmt.Errorf("dataset %s: decode %s: %w", d.Name(), patternsFile, err)
	}
	sum := blake2b.Sum256(blob)
	return patterns, hex.EncodeToString(sum[:8]), nil
}

// Generate scans the folder for .qasm files, keeps those that parse under
// the gate set, and writes the compiled pattern blob. It returns the number
// of patterns written.
func (d Dataset) Generate(set circuit.GateSet) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".qasm") {
			files = append(files, e.Name())
		}
	}
	sortQasmFiles(files)

	log := logger.Logger()
	var patterns []string
	for _, name := range files {
		src, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			return 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
		}
		if _, err := circuit.Parse(set, string(src)); err != nil {
			// mirror of the generate-time validity filter: unusable
			// patterns are dropped here, not at benchmark time
			log.Warn().Str("dataset", d.Name()).Str("file", name).Err(err).Msg("skipping invalid pattern")
			continue
		}
		patterns = append(patterns, string(src))
	}
	if err := d.writePatterns(patterns); err != nil {
		return 0, err
	}
	return len(patterns), nil
}

func (d Dataset) writePatterns(patterns []string) error {
	blob, err := cbor.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("dataset %s: encode %s: %w", d.Name(), patternsFile, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, patternsFile), blob, 0600); err != nil {
		return fmt.Errorf("dataset %s: %w", d.Name(), err)
	}
	return nil
}

// GenerateFromECC expands an equivalence-class database into a dataset
// folder: one .qasm file per circuit when saveFiles is set, plus the
// compiled pattern blob. It returns the dataset and the number of patterns.
func GenerateFromECC(set circuit.GateSet, eccPath, dir string, saveFiles bool) (Dataset, int, error) {
	d := Dataset{dir: dir}
	classes, err := ecc.Load(set, eccPath)
	if err != nil {
		return d, 0, err
	}
	circuits := ecc.Expand(classes)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return d, 0, fmt.Errorf("dataset %s: %w", d.Name(), err)
	}
	patterns := make([]string, len(circuits))
	for i, c := range circuits {
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
	return d, len(patterns), nil
}

// sortQasmFiles orders files numerically by stem when every stem is an
// integer (the layout generated datasets use), lexically otherwise.
func sortQasmFiles(files []string) {
	numeric := true
	stems := make(map[string]int, len(files))
	for _, f := range files {
		n, err := strconv.Atoi(strings.TrimSuffix(f, ".qasm"))
		if err != nil {
			numeric = false
			break
		}
		stems[f] = n
	}
	if numeric {
		sort.Slice(files, func(i, j int) bool { return stems[files[i]] < stems[files[j]] })
	} else {
		sort.Strings(files)
	}
}
