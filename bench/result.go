package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/xferbench/xferbench/match"
)

// Record is one completed benchmark iteration: a (dataset item, rule-set
// configuration, repetition) triple with its match count and timing.
type Record struct {
	Dataset     string
	Fingerprint string
	RuleConfig  string // e.g. "n=200"
	NbRules     int
	Rep         int
	MatchCount  int
	Elapsed     time.Duration
	PerRule     []match.RuleTiming
}

// Failure is one dataset item whose iteration could not complete. Failures
// are part of the report; they are never silently dropped.
type Failure struct {
	Dataset string
	Err     string
}

// Report aggregates the outcome of one orchestrator run.
type Report struct {
	Records  []Record
	Failures []Failure
}

// Completed returns "N of M" iteration accounting: completed records and
// total attempted dataset items that failed.
func (r *Report) Completed() (nbRecords, nbFailures int) {
	return len(r.Records), len(r.Failures)
}

// WriteCSV writes all records as CSV, sorted by dataset, rule count and
// repetition so the output is deterministic.
func (r *Report) WriteCSV(w io.Writer) error {
	records := append([]Record(nil), r.Records...)
	sort.Slice(records, func(i, j int) bool {
		if records[i].Dataset != records[j].Dataset {
			return records[i].Dataset < records[j].Dataset
		}
		if records[i].NbRules != records[j].NbRules {
			return records[i].NbRules < records[j].NbRules
		}
		return records[i].Rep < records[j].Rep
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"dataset", "fingerprint", "rule_config", "rules", "rep", "match_count", "duration"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Dataset,
			rec.Fingerprint,
			rec.RuleConfig,
			strconv.Itoa(rec.NbRules),
			strconv.Itoa(rec.Rep),
			strconv.Itoa(rec.MatchCount),
			strconv.FormatFloat(rec.Elapsed.Seconds(), 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles persists the report under outDir: one size,duration CSV per
// dataset (the layout downstream plotting consumes) plus a combined
// records.csv.
func (r *Report) WriteFiles(outDir string) error {
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return err
	}

	perDataset := make(map[string][]Record)
	for _, rec := range r.Records {
		perDataset[rec.Dataset] = append(perDataset[rec.Dataset], rec)
	}
	names := make([]string, 0, len(perDataset))
	for name := range perDataset {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		records := perDataset[name]
		sort.Slice(records, func(i, j int) bool {
			if records[i].NbRules != records[j].NbRules {
				return records[i].NbRules < records[j].NbRules
			}
			return records[i].Rep < records[j].Rep
		})
		f, err := os.Create(filepath.Join(outDir, name+".csv"))
		if err != nil {
			return err
		}
		cw := csv.NewWriter(f)
		if err := cw.Write([]string{"size", "duration"}); err != nil {
			f.Close()
			return err
		}
		for _, rec := range records {
			err := cw.Write([]string{
				strconv.Itoa(rec.NbRules),
				strconv.FormatFloat(rec.Elapsed.Seconds(), 'g', -1, 64),
			})
			if err != nil {
				f.Close()
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(outDir, "records.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := r.WriteCSV(f); err != nil {
		return fmt.Errorf("write records.csv: %w", err)
	}
	return nil
}
