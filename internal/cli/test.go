package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linmx0130/yoshino/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool
	Filter    string
	GoldenDir string
}

// TestResult holds results for the test command.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
	Golden string   `json:"golden,omitempty"` // "match", "updated", "missing" or "mismatch"
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against an in-memory SQLite database.

Each scenario's trace is compared against <golden-dir>/<name>.golden.
Use --update to rewrite the golden files.

Examples:
  yoshino test testdata/scenarios
  yoshino test testdata/scenarios --filter counter
  yoshino test testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "update golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose file name contains this string")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNoFiles, fmt.Errorf("no scenario files found in %s", dir))
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(dir, "golden")
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		sr := runScenario(ctx, opts, file, goldenDir)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	result.Total = len(result.Scenarios)

	if err := formatter.Success(result, formatTestText(result)); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles lists the YAML files directly under dir, sorted.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func runScenario(ctx context.Context, opts *TestOptions, file, goldenDir string) ScenarioResult {
	sr := ScenarioResult{File: file, Name: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{err.Error()}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.RunWithLogger(ctx, scenario, opts.logger())
	if err != nil {
		sr.Errors = []string{err.Error()}
		return sr
	}
	sr.Pass = result.Pass
	sr.Errors = result.Errors

	trace, err := harness.MarshalTrace(scenario, result)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}

	status, err := checkGolden(goldenFilePath(goldenDir, scenario.Name), trace, opts.Update)
	sr.Golden = status
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
	}
	return sr
}

func goldenFilePath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// checkGolden compares trace with the golden file at path, or rewrites it
// when update is set.
func checkGolden(path string, trace []byte, update bool) (string, error) {
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, trace, 0o644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "updated", nil
	}
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "missing", fmt.Errorf("golden file %s not found (run with --update)", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, trace) {
		return "mismatch", fmt.Errorf("trace differs from %s", path)
	}
	return "match", nil
}

func formatTestText(result TestResult) string {
	var b strings.Builder
	for _, sr := range result.Scenarios {
		status := "PASS"
		if !sr.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", status, sr.Name, sr.File)
		for _, e := range sr.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	return b.String()
}
