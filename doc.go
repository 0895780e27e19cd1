// Package xferbench benchmarks pattern matching of circuit-rewrite rules
// ("xfers") against quantum circuit graphs.
//
// A benchmark run loads a target circuit into an operation graph, compiles a
// dataset of small circuit fragments into rewrite rules, and counts how many
// (operation, rule) pairs pass the applicability test, including the
// convexity check on the matched subgraph. The matching engine is consumed
// through a narrow interface (see the engine package), so the in-tree native
// engine can be swapped for a stub or an external binding.
package xferbench

import (
	"github.com/blang/semver/v4"
)

// Version of the xferbench module.
var Version = semver.MustParse("0.3.0")
