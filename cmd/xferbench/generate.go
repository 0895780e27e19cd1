package main

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xferbench/xferbench/bench"
	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "generate benchmark datasets",
	Long: `Generate rewrite-pattern datasets: expansions of equivalence-class
databases and seeded random circuits. Without flags, the default datasets
are generated.`,
	RunE: runGenerate,
}

var generateFlags struct {
	eccFiles  []string
	qubits    []int
	gates     []int
	nCircuits []int
	seed      int64
	saveFiles bool
	outDir    string
}

func init() {
	f := generateCmd.Flags()
	f.StringSliceVarP(&generateFlags.eccFiles, "ecc-datasets", "e", nil, "equivalence-class database files to expand")
	f.IntSliceVarP(&generateFlags.qubits, "qubits", "q", nil, "number of qubits in each random dataset")
	f.IntSliceVarP(&generateFlags.gates, "gates", "g", nil, "number of gates in each random dataset")
	f.IntSliceVarP(&generateFlags.nCircuits, "n-circuits", "n", nil, "number of circuits in each random dataset")
	f.Int64Var(&generateFlags.seed, "seed", (1<<32)-1, "randomness seed")
	f.BoolVarP(&generateFlags.saveFiles, "save-files", "s", false, "also save each generated circuit as a .qasm file")
	f.StringVarP(&generateFlags.outDir, "out", "o", "datasets", "folder to generate datasets under")
	rootCmd.AddCommand(generateCmd)
}

var defaultECCDatasets = []string{
	"datasets/eccs/2_6-eccs.json",
	"datasets/eccs/3_6-eccs.json",
	"datasets/eccs/4_6-eccs.json",
}

var (
	defaultRandomQubits    = []int{2, 3, 4, 6, 8, 10}
	defaultRandomGates     = []int{15, 15, 15, 15, 15, 15}
	defaultRandomNCircuits = []int{10000, 10000, 10000, 10000, 10000, 10000}
)

func runGenerate(cmd *cobra.Command, _ []string) error {
	flags := &generateFlags
	if len(flags.qubits) != len(flags.gates) || len(flags.gates) != len(flags.nCircuits) {
		return fmt.Errorf("--qubits, --gates and --n-circuits must have the same length")
	}
	if len(flags.qubits) == 0 && len(flags.eccFiles) == 0 {
		flags.eccFiles = defaultECCDatasets
		flags.qubits = defaultRandomQubits
		flags.gates = defaultRandomGates
		flags.nCircuits = defaultRandomNCircuits
	}

	log := logger.Logger()
	set := circuit.DefaultGateSet()
	total := 0

	for _, eccFile := range flags.eccFiles {
		dir := strings.TrimSuffix(eccFile, filepath.Ext(eccFile))
		log.Info().Str("ecc", eccFile).Str("dir", dir).Msg("generating dataset")
		_, n, err := bench.GenerateFromECC(set, eccFile, dir, flags.saveFiles)
		if err != nil {
			return err
		}
		total += n
	}

	rng := rand.New(rand.NewSource(flags.seed))
	for i, qb := range flags.qubits {
		g, n := flags.gates[i], flags.nCircuits[i]
		dir := filepath.Join(flags.outDir, "random", fmt.Sprintf("%d_%d-random", qb, g))
		log.Info().Str("dir", dir).Msg("generating dataset")
		_, nb, err := bench.GenerateRandom(set, dir, n, qb, g, rng.Int63(), flags.saveFiles)
		if err != nil {
			return err
		}
		total += nb
	}

	fmt.Fprintf(cmd.OutOrStdout(), "generated %d circuits\n", total)
	return nil
}
