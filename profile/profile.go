// Package profile generates a pprof compatible profile of a benchmark run,
// attributing applicable-match counts and matching time to rules.
//
// Unlike a CPU profile, samples are exact: the match engine reports one
// aggregate per rule per run via the Sample method.
package profile

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/pprof/profile"

	"github.com/xferbench/xferbench/logger"
)

// Profile is an active benchmark profiling session. It is safe for
// concurrent use; orchestrator workers may sample into one session.
type Profile struct {
	// defaults to ./xferbench.pprof
	// if blank, profile is not written to disk
	filePath string

	mu sync.Mutex
	// details on pprof format: https://github.com/google/pprof/blob/main/proto/README.md
	pprof     profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
}

// Option defines configuration options for Profile.
type Option func(*Profile)

// WithPath controls the profile destination file. If blank, the profile is
// not written.
//
// Defaults to ./xferbench.pprof.
func WithPath(path string) Option {
	return func(p *Profile) {
		p.filePath = path
	}
}

// WithNoOutput indicates that the profile is not going to be written to disk.
//
// This is equivalent to WithPath("")
func WithNoOutput() Option {
	return func(p *Profile) {
		p.filePath = ""
	}
}

// Start creates a new profiling session. When Stop is called the session
// may be serialized to disk as a pprof compatible file (see WithPath).
func Start(options ...Option) *Profile {
	p := &Profile{
		filePath:  filepath.Join(".", "xferbench.pprof"),
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}
	p.pprof.SampleType = []*profile.ValueType{
		{Type: "matches", Unit: "count"},
		{Type: "time", Unit: "nanoseconds"},
	}

	for _, option := range options {
		option(p)
	}

	log := logger.Logger()
	if p.filePath == "" {
		log.Warn().Msg("match profiling enabled [not writing to disk]")
	} else {
		log.Info().Str("path", p.filePath).Msg("match profiling enabled")
	}
	return p
}

// Sample records one per-rule aggregate. It implements match.Sampler.
func (p *Profile) Sample(rule string, matches int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pprof.Sample = append(p.pprof.Sample, &profile.Sample{
		Location: []*profile.Location{p.locationOf(rule)},
		Value:    []int64{int64(matches), elapsed.Nanoseconds()},
	})
}

// NbSamples returns the number of samples recorded so far.
func (p *Profile) NbSamples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pprof.Sample)
}

// Stop may write the pprof file to disk. See WithPath.
func (p *Profile) Stop() {
	log := logger.Logger()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.filePath == "" {
		return
	}
	f, err := os.Create(p.filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create match profile")
	}
	defer f.Close()
	if err := p.pprof.Write(f); err != nil {
		log.Error().Err(err).Msg("writing profile")
	}
	log.Info().Str("path", p.filePath).Int("samples", len(p.pprof.Sample)).Msg("match profile written")
}

// locationOf returns the synthetic location for a rule, creating it on
// first use. Caller holds p.mu.
func (p *Profile) locationOf(rule string) *profile.Location {
	if loc, ok := p.locations[rule]; ok {
		return loc
	}
	fn, ok := p.functions[rule]
	if !ok {
		fn = &profile.Function{
			ID:         uint64(len(p.functions) + 1),
			Name:       rule,
			SystemName: rule,
		}
		p.functions[rule] = fn
		p.pprof.Function = append(p.pprof.Function, fn)
	}
	loc := &profile.Location{
		ID:   uint64(len(p.locations) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	p.locations[rule] = loc
	p.pprof.Location = append(p.pprof.Location, loc)
	return loc
}
