package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/engine"
	"github.com/xferbench/xferbench/logger"
	"github.com/xferbench/xferbench/match"
)

// Config parameterizes an orchestrator run. Zero values fall back to
// defaults in New, except Engine and GateSet which are required.
type Config struct {
	Engine  engine.Engine
	GateSet circuit.GateSet

	// Sizes are the rule-set prefix sizes to benchmark. Sizes larger than a
	// dataset are skipped for that dataset.
	Sizes []int
	// Reps is the number of repetitions per (dataset, size).
	Reps int
	// Workers bounds how many dataset items run in parallel. Each worker
	// owns its graph and rule set; nothing is shared inside an iteration.
	Workers int
	// Timeout bounds one dataset item's whole iteration. A timed-out item
	// is recorded as a failure without affecting other items.
	Timeout time.Duration

	// PerRuleTimings records a per-rule breakdown in every record.
	PerRuleTimings bool
	// Sampler, when set, receives per-rule aggregates (implies per-rule
	// timing). It must be safe for concurrent use when Workers > 1.
	Sampler match.Sampler
}

// DefaultSizes returns the standard rule-set size sweep: 200 to 10000 in
// steps of 200.
func DefaultSizes() []int {
	var sizes []int
	for n := 200; n <= 10000; n += 200 {
		sizes = append(sizes, n)
	}
	return sizes
}

// Orchestrator iterates datasets x rule-set sizes x repetitions and collects
// one record per completed iteration.
type Orchestrator struct {
	cfg Config
}

// New validates the configuration and applies defaults.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("orchestrator: nil engine")
	}
	if len(cfg.GateSet) == 0 {
		return nil, fmt.Errorf("orchestrator: empty gate set")
	}
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = DefaultSizes()
	}
	if cfg.Reps <= 0 {
		cfg.Reps = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Run benchmarks every dataset against the target circuit. Failures are
// isolated per dataset item: a failed item is recorded in the report and
// the run continues. Run returns an error only when every item failed.
func (o *Orchestrator) Run(ctx context.Context, targetQASM string, datasets []Dataset) (*Report, error) {
	log := logger.Logger()

	var mu sync.Mutex
	report := &Report{}

	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for _, d := range datasets {
		d := d
		g.Go(func() error {
			records, err := o.runDataset(ctx, targetQASM, d)
			mu.Lock()
			defer mu.Unlock()
			report.Records = append(report.Records, records...)
			if err != nil {
				log.Warn().Str("dataset", d.Name()).Err(err).Msg("dataset item failed")
				report.Failures = append(report.Failures, Failure{Dataset: d.Name(), Err: err.Error()})
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are recorded

	nbRecords, nbFailures := report.Completed()
	log.Info().
		Int("records", nbRecords).
		Int("failures", nbFailures).
		Int("datasets", len(datasets)).
		Msg("benchmark run completed")
	if nbRecords == 0 && nbFailures > 0 {
		return report, fmt.Errorf("all %d dataset items failed", nbFailures)
	}
	return report, nil
}

// runDataset runs every (size, rep) iteration of one dataset item. Dataset
// I/O and pattern parsing happen before the timed region; the Graph and
// RuleSet of each iteration are built, consumed once and released.
func (o *Orchestrator) runDataset(ctx context.Context, targetQASM string, d Dataset) ([]Record, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	log := logger.Logger()

	texts, fingerprint, err := d.Patterns()
	if err != nil {
		return nil, err
	}
	// an empty item must surface in the report, not vanish from the
	// "N of M" accounting
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty dataset: %s holds no patterns", patternsFile)
	}
	patterns := make([]*circuit.Circuit, len(texts))
	for i, text := range texts {
		patterns[i], err = circuit.Parse(o.cfg.GateSet, text)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	log.Debug().Str("dataset", d.Name()).Int("patterns", len(patterns)).Msg("loaded patterns")

	sizes := fitSizes(o.cfg.Sizes, len(patterns))
	var opts []match.Option
	if o.cfg.PerRuleTimings {
		opts = append(opts, match.WithPerRuleTimings())
	}
	if o.cfg.Sampler != nil {
		opts = append(opts, match.WithSampler(o.cfg.Sampler))
	}

	var records []Record
	for _, size := range sizes {
		for rep := 0; rep < o.cfg.Reps; rep++ {
			select {
			case <-ctx.Done():
				return records, fmt.Errorf("aborted at n=%d rep=%d: %w", size, rep, ctx.Err())
			default:
			}
			rec, err := o.runIteration(targetQASM, patterns[:size], opts)
			if err != nil {
				return records, err
			}
			rec.Dataset = d.Name()
			rec.Fingerprint = fingerprint
			rec.Rep = rep
			records = append(records, rec)
		}
	}
	return records, nil
}

// runIteration is the strictly sequential pipeline of one iteration:
// graph load, rule compile, match run, release.
func (o *Orchestrator) runIteration(targetQASM string, patterns []*circuit.Circuit, opts []match.Option) (Record, error) {
	g, err := o.cfg.Engine.ParseGraph(o.cfg.GateSet, targetQASM)
	if err != nil {
		return Record{}, err
	}
	defer g.Close()

	rules, err := o.cfg.Engine.CompileRules(o.cfg.GateSet, patterns)
	if err != nil {
		return Record{}, err
	}
	defer rules.Close()

	res := match.Run(g, rules, opts...)
	return Record{
		RuleConfig: fmt.Sprintf("n=%d", len(patterns)),
		NbRules:    len(patterns),
		MatchCount: res.MatchCount,
		Elapsed:    res.Elapsed,
		PerRule:    res.PerRule,
	}, nil
}

// fitSizes keeps the configured sizes that fit the dataset. A dataset
// smaller than every configured size still produces one full-set
// configuration.
func fitSizes(sizes []int, nbPatterns int) []int {
	var fit []int
	for _, n := range sizes {
		if n <= nbPatterns {
			fit = append(fit, n)
		}
	}
	if len(fit) == 0 && nbPatterns > 0 {
		fit = []int{nbPatterns}
	}
	return fit
}
