package bench

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xferbench/xferbench/circuit"
	"github.com/xferbench/xferbench/engine/native"
)

const targetQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
h q[0];
cx q[0], q[1];
h q[0];
h q[1];
`

var testPatterns = []string{
	"qreg q[1];\nh q[0];",
	"qreg q[2];\ncx q[0], q[1];",
}

// makeDataset writes a dataset folder holding the given pattern texts.
func makeDataset(t *testing.T, name string, patterns []string) Dataset {
	t.Helper()
	d := Dataset{dir: filepath.Join(t.TempDir(), name)}
	require.NoError(t, os.MkdirAll(d.dir, 0750))
	require.NoError(t, d.writePatterns(patterns))
	return d
}

func testConfig() Config {
	return Config{
		Engine:  native.New(),
		GateSet: circuit.DefaultGateSet(),
		Sizes:   []int{2},
	}
}

func TestRunPartialFailure(t *testing.T) {
	// five dataset items, the third holds an unparsable pattern
	datasets := make([]Dataset, 5)
	for i := range datasets {
		patterns := testPatterns
		if i == 2 {
			patterns = []string{"qreg q[1];\nboom q[0];", testPatterns[0]}
		}
		datasets[i] = makeDataset(t, "ds"+strconv.Itoa(i), patterns)
	}

	o, err := New(testConfig())
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.NoError(t, err, "one failed item must not fail the run")

	nbRecords, nbFailures := report.Completed()
	assert.Equal(t, 4, nbRecords)
	assert.Equal(t, 1, nbFailures)
	assert.Equal(t, "ds2", report.Failures[0].Dataset)
}

func TestRunAllFailed(t *testing.T) {
	datasets := []Dataset{
		makeDataset(t, "bad0", []string{"qreg q[1];\nboom q[0];"}),
		makeDataset(t, "bad1", []string{"nonsense"}),
	}

	o, err := New(testConfig())
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.Error(t, err)

	nbRecords, nbFailures := report.Completed()
	assert.Equal(t, 0, nbRecords)
	assert.Equal(t, 2, nbFailures)
}

func TestRunEmptyDataset(t *testing.T) {
	datasets := []Dataset{
		makeDataset(t, "empty", nil),
		makeDataset(t, "ok", testPatterns),
	}

	o, err := New(testConfig())
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.NoError(t, err)

	nbRecords, nbFailures := report.Completed()
	assert.Equal(t, 1, nbRecords)
	assert.Equal(t, 1, nbFailures, "an empty item is reported, not dropped")
	assert.Equal(t, "empty", report.Failures[0].Dataset)
}

func TestRunTargetParseFailure(t *testing.T) {
	datasets := []Dataset{makeDataset(t, "ds", testPatterns)}

	o, err := New(testConfig())
	require.NoError(t, err)
	_, err = o.Run(context.Background(), "definitely not qasm", datasets)
	assert.Error(t, err, "every iteration fails on an unparsable target")
}

func TestRunRecords(t *testing.T) {
	cfg := testConfig()
	cfg.Sizes = []int{1, 2}
	cfg.Reps = 2
	datasets := []Dataset{makeDataset(t, "ds", testPatterns)}

	o, err := New(cfg)
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.NoError(t, err)
	require.Len(t, report.Records, 4) // 2 sizes x 2 reps

	for _, rec := range report.Records {
		assert.Equal(t, "ds", rec.Dataset)
		assert.NotEmpty(t, rec.Fingerprint)
		assert.Equal(t, "n="+strconv.Itoa(rec.NbRules), rec.RuleConfig)
		assert.GreaterOrEqual(t, rec.MatchCount, 0)
		assert.LessOrEqual(t, rec.MatchCount, 4*rec.NbRules, "count <= |ops| * |rules|")
	}

	// the h rule matches the three h gates; the cx rule matches the cx
	bySize := make(map[int]int)
	for _, rec := range report.Records {
		bySize[rec.NbRules] = rec.MatchCount
	}
	assert.Equal(t, 3, bySize[1])
	assert.Equal(t, 4, bySize[2])
}

func TestRunDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Sizes = []int{1, 2}
	datasets := []Dataset{makeDataset(t, "ds", testPatterns)}

	counts := func() []int {
		o, err := New(cfg)
		require.NoError(t, err)
		report, err := o.Run(context.Background(), targetQASM, datasets)
		require.NoError(t, err)
		var out []int
		for _, rec := range report.Records {
			out = append(out, rec.MatchCount)
		}
		return out
	}

	first := counts()
	if diff := cmp.Diff(first, counts()); diff != "" {
		t.Fatalf("match counts changed between runs (-first +second):\n%s", diff)
	}
}

func TestRunWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 4
	datasets := make([]Dataset, 8)
	for i := range datasets {
		datasets[i] = makeDataset(t, "ds"+strconv.Itoa(i), testPatterns)
	}

	o, err := New(cfg)
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.NoError(t, err)
	assert.Len(t, report.Records, 8)

	for _, rec := range report.Records {
		assert.Equal(t, 4, rec.MatchCount, "workers share nothing; counts are identical")
	}
}

func TestRunTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = time.Nanosecond
	datasets := []Dataset{makeDataset(t, "slow", testPatterns)}

	o, err := New(cfg)
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.Error(t, err, "the only item timed out")

	_, nbFailures := report.Completed()
	assert.Equal(t, 1, nbFailures)
}

func TestRunPerRuleTimings(t *testing.T) {
	cfg := testConfig()
	cfg.PerRuleTimings = true
	datasets := []Dataset{makeDataset(t, "ds", testPatterns)}

	o, err := New(cfg)
	require.NoError(t, err)
	report, err := o.Run(context.Background(), targetQASM, datasets)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	perRule := report.Records[0].PerRule
	require.Len(t, perRule, 2)
	sum := 0
	for _, rt := range perRule {
		sum += rt.Matches
	}
	assert.Equal(t, report.Records[0].MatchCount, sum)
}

func TestFitSizes(t *testing.T) {
	assert.Equal(t, []int{200, 400}, fitSizes([]int{200, 400, 600}, 450))
	assert.Equal(t, []int{15}, fitSizes([]int{200, 400}, 15), "small datasets run once at full size")
	assert.Nil(t, fitSizes([]int{200}, 0))
}

func TestReportWriteCSV(t *testing.T) {
	report := &Report{Records: []Record{
		{Dataset: "b", Fingerprint: "f1", RuleConfig: "n=2", NbRules: 2, MatchCount: 7, Elapsed: 1500 * time.Microsecond},
		{Dataset: "a", Fingerprint: "f0", RuleConfig: "n=1", NbRules: 1, MatchCount: 3, Elapsed: time.Millisecond},
	}}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	want := "dataset,fingerprint,rule_config,rules,rep,match_count,duration\n" +
		"a,f0,n=1,1,0,3,0.001\n" +
		"b,f1,n=2,2,0,7,0.0015\n"
	assert.Equal(t, want, buf.String())
}

func TestReportWriteFiles(t *testing.T) {
	report := &Report{Records: []Record{
		{Dataset: "ds", RuleConfig: "n=1", NbRules: 1, MatchCount: 3, Elapsed: time.Millisecond},
		{Dataset: "ds", RuleConfig: "n=2", NbRules: 2, MatchCount: 4, Elapsed: 2 * time.Millisecond},
	}}

	outDir := filepath.Join(t.TempDir(), "results")
	require.NoError(t, report.WriteFiles(outDir))

	data, err := os.ReadFile(filepath.Join(outDir, "ds.csv"))
	require.NoError(t, err)
	assert.Equal(t, "size,duration\n1,0.001\n2,0.002\n", string(data))

	_, err = os.Stat(filepath.Join(outDir, "records.csv"))
	assert.NoError(t, err)
}
