package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/xferbench/xferbench/bench"
	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/engine/native"
	"github.com/xferbench/xferbench/profile"
)

var runCmd = &cobra.Command{
	Use:   "run <target.qasm>",
	Short: "run matching benchmarks on datasets",
	Long: `Benchmark rule matching against a target circuit. Without --datasets,
all datasets with a compiled pattern blob under ./datasets are run.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var runFlags struct {
	datasets    []string
	outDir      string
	sizes       []int
	reps        int
	workers     int
	timeout     time.Duration
	perRule     bool
	profilePath string
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVarP(&runFlags.datasets, "datasets", "d", nil, "dataset folders to benchmark (default: discover under ./datasets)")
	f.StringVarP(&runFlags.outDir, "output-folder", "o", "results", "folder to save results in")
	f.IntSliceVar(&runFlags.sizes, "sizes", nil, "rule-set sizes to benchmark (default: 200..10000 step 200)")
	f.IntVar(&runFlags.reps, "reps", 1, "repetitions per (dataset, size)")
	f.IntVar(&runFlags.workers, "workers", 1, "dataset items benchmarked in parallel")
	f.DurationVar(&runFlags.timeout, "timeout", 0, "per-dataset-item timeout (0: none)")
	f.BoolVar(&runFlags.perRule, "per-rule", false, "record per-rule timing breakdowns")
	f.StringVar(&runFlags.profilePath, "profile", "", "write a pprof match profile to this path")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	target, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	roots := runFlags.datasets
	if len(roots) == 0 {
		roots = []string{"datasets"}
	}
	datasets, err := discoverDatasets(roots)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		return fmt.Errorf("no datasets with a %s found under %v; run generate first", "patterns.bin", roots)
	}

	cfg := bench.Config{
		Engine:         native.New(),
		GateSet:        circuit.DefaultGateSet(),
		Sizes:          runFlags.sizes,
		Reps:           runFlags.reps,
		Workers:        runFlags.workers,
		Timeout:        runFlags.timeout,
		PerRuleTimings: runFlags.perRule,
	}
	if runFlags.profilePath != "" {
		p := profile.Start(profile.WithPath(runFlags.profilePath))
		defer p.Stop()
		cfg.Sampler = p
	}

	o, err := bench.New(cfg)
	if err != nil {
		return err
	}
	report, runErr := o.Run(cmd.Context(), string(target), datasets)
	if err := report.WriteFiles(runFlags.outDir); err != nil {
		return err
	}
	nbRecords, nbFailures := report.Completed()
	fmt.Fprintf(cmd.OutOrStdout(), "completed %d iterations, %d dataset failures, results in %s\n",
		nbRecords, nbFailures, runFlags.outDir)
	return runErr
}

// discoverDatasets walks the given roots and returns every folder holding a
// compiled pattern blob, deduplicated and sorted.
func discoverDatasets(roots []string) ([]bench.Dataset, error) {
	seen := make(map[string]struct{})
	var dirs []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && d.Name() == "patterns.bin" {
				dir := filepath.Dir(path)
				if _, dup := seen[dir]; !dup {
					seen[dir] = struct{}{}
					dirs = append(dirs, dir)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(dirs)
	datasets := make([]bench.Dataset, len(dirs))
	for i, dir := range dirs {
		datasets[i] = bench.Open(dir)
	}
	return datasets, nil
}
