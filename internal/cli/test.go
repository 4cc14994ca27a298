package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // match, updated, missing, mismatch
	Hash   string   `json:"hash,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against golden traces",
		Long: `Run every *.yaml scenario in a directory. Each runs on a fresh
in-memory database with deterministic ids and seqs. Assertions are
checked and the trace is compared with <scenarios-dir>/golden/<name>.golden.

Use --update to rewrite golden files from the current traces.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, cmd *cobra.Command, dir string) error {
	out := opts.formatter(cmd)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fail(out, ExitCommandError, "scenarios directory not found", fmt.Errorf("%s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return fail(out, ExitCommandError, "failed to list scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		sr := runScenario(ctx, opts, file, dir)
		result.Scenarios = append(result.Scenarios, sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		opts.log().Debug("scenario finished", "file", file, "pass", sr.Pass)
	}

	if err := out.Success(result, func(w io.Writer) { writeTestText(w, result, opts.Verbose) }); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

// findScenarioFiles returns the sorted scenario files in dir. A non-empty
// filter is matched as a glob against the base name.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("bad filter: %w", err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func runScenario(ctx context.Context, opts *TestOptions, file, dir string) ScenarioResult {
	sr := ScenarioResult{File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		sr.Errors = []string{err.Error()}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.RunContext(ctx, scenario)
	if err != nil {
		sr.Errors = []string{err.Error()}
		return sr
	}
	sr.Errors = result.Errors

	trace, err := harness.MarshalTrace(scenario.Name, result.Trace)
	if err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}
	sr.Hash, _ = harness.TraceHash(scenario.Name, result.Trace)

	golden := goldenFilePath(dir, scenario.Name)
	switch {
	case opts.Update:
		if err := updateGoldenFile(golden, trace); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = "updated"
	default:
		want, err := os.ReadFile(golden)
		switch {
		case os.IsNotExist(err):
			sr.Golden = "missing"
		case err != nil:
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		case bytes.Equal(bytes.TrimSpace(want), trace):
			sr.Golden = "match"
		default:
			sr.Golden = "mismatch"
			sr.Errors = append(sr.Errors, fmt.Sprintf("trace differs from %s (run with --update to accept)", golden))
		}
	}

	sr.Pass = result.Pass && sr.Golden != "mismatch"
	return sr
}

func goldenFilePath(dir, name string) string {
	return filepath.Join(dir, "golden", name+".golden")
}

func updateGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func writeTestText(w io.Writer, result TestResult, verbose bool) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found")
		return
	}
	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s", mark, sr.Name)
		if sr.Golden == "missing" || sr.Golden == "updated" || verbose {
			fmt.Fprintf(w, " (golden: %s)", sr.Golden)
		}
		fmt.Fprintln(w)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
