// Package match implements the match-scheduling and measurement core: given
// an operation graph and a compiled rule set, it counts the (operation,
// rule) pairs whose applicability test (structural match + convexity)
// holds, and produces reproducible timings.
package match

import (
	"time"

	"github.com/xferbench/xferbench/engine"
)

// RuleTiming is the per-rule breakdown of one run, in rule-set order.
type RuleTiming struct {
	Rule    string
	Matches int
	Elapsed time.Duration
}

// Result is the outcome of one match run.
//
// MatchCount is the number of (operation, rule) pairs for which the
// applicability predicate holds. Overlapping matches are counted
// independently: the engine measures matching throughput, not
// simplification opportunities. 0 <= MatchCount <= GateCount * Len(rules).
type Result struct {
	MatchCount int
	Elapsed    time.Duration
	PerRule    []RuleTiming
}

// Sampler receives per-rule aggregates after a run, e.g. for profiling.
type Sampler interface {
	Sample(rule string, matches int, elapsed time.Duration)
}

type config struct {
	perRule bool
	sampler Sampler
}

// Option configures a match run.
type Option func(*config)

// WithPerRuleTimings records a per-rule timing breakdown. The extra clock
// reads perturb the total elapsed time slightly, so it is off by default.
func WithPerRuleTimings() Option {
	return func(c *config) { c.perRule = true }
}

// WithSampler forwards per-rule aggregates to s after the run. Implies
// per-rule timing.
func WithSampler(s Sampler) Option {
	return func(c *config) {
		c.perRule = true
		c.sampler = s
	}
}

// Run evaluates every (operation, rule) pair, operations outer and rules
// inner. The iteration order is fixed; it does not change the total count
// but keeps timing attribution stable across runs. Run is deterministic:
// the same (graph, rules) pair always yields the same count.
func Run(g engine.Graph, rules engine.RuleSet, opts ...Option) Result {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	ops := g.Ops()
	n := rules.Len()
	rs := make([]engine.Rule, n)
	for j := range rs {
		rs[j] = rules.At(j)
	}

	var perRule []RuleTiming
	if cfg.perRule {
		perRule = make([]RuleTiming, n)
		for j, r := range rs {
			perRule[j].Rule = r.Name()
		}
	}

	count := 0
	start := time.Now()
	if cfg.perRule {
		for _, op := range ops {
			for j, r := range rs {
				t0 := time.Now()
				hit := g.Applicable(r, op)
				perRule[j].Elapsed += time.Since(t0)
				if hit {
					count++
					perRule[j].Matches++
				}
			}
		}
	} else {
		for _, op := range ops {
			for _, r := range rs {
				if g.Applicable(r, op) {
					count++
				}
			}
		}
	}
	elapsed := time.Since(start)

	if cfg.sampler != nil {
		for _, rt := range perRule {
			cfg.sampler.Sample(rt.Rule, rt.Matches, rt.Elapsed)
		}
	}

	return Result{MatchCount: count, Elapsed: elapsed, PerRule: perRule}
}
