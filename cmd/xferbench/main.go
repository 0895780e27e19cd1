// xferbench is a CLI to generate rewrite-pattern datasets and benchmark
// rule matching against target circuits.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xferbench/xferbench"
)

var rootCmd = &cobra.Command{
	Use:     "xferbench",
	Short:   "benchmark pattern matching of circuit-rewrite rules",
	Version: xferbench.Version.String(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
