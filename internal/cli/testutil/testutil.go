// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/config"
	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	itestutil "github.com/leapstack-labs/uvcalc/internal/testutil"
)

// TestWorksheet is the worksheet written by SetupTestProject. Its standards lie
// exactly on y = 0.01 + 0.05x, so every sample absorbance of 0.26 reads 5 mg/L.
const TestWorksheet = `name: test analysis
stock:
  method: solid
  salt: NaCl
  analyte: Cl
  concentration: 1000
  volume: 100
series:
  flask_volume: 10
  stock_concentration: 100
  targets: [2, 4, 6, 8, 10]
calibration:
  concentrations: [2, 4, 6, 8, 10]
  absorbances: [0.11, 0.21, 0.31, 0.41, 0.51]
sample:
  absorbances: [0.26, 0.26]
  dilution_factor: 10
  flask_volume: 100
  mass: 1
`

// SetupTestProject creates a temporary project with a uvcalc.yaml, a
// worksheet.yaml and an empty state directory. It returns the project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, ".uvcalc"), 0750); err != nil {
		t.Fatalf("failed to create state directory: %v", err)
	}

	cfg := "state_path: .uvcalc/state.db\noutput: markdown\nprecision: 4\n"
	if err := os.WriteFile(filepath.Join(tmpDir, config.ConfigFileName), []byte(cfg), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", config.ConfigFileName, err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "worksheet.yaml"), []byte(TestWorksheet), 0600); err != nil {
		t.Fatalf("failed to create worksheet.yaml: %v", err)
	}

	return tmpDir
}

// TestConfig returns a configuration whose state lives in a fresh temp dir.
func TestConfig(t *testing.T, mode output.OutputMode) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.StatePath = filepath.Join(dir, "state.db")
	cfg.HistoryFile = ""
	cfg.OutputFormat = string(mode)
	cfg.ProjectRoot = dir
	return cfg
}

// Result holds the captured output of a command run.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// ExecuteCommand runs cmd with args under cfg, capturing stdout and stderr.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) Result {
	t.Helper()

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, itestutil.NewTestLogger(t))

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for unclosed code fences, empty headers and
// pipe tables whose rows disagree on the column count.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	columns := 0
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}

		if !strings.HasPrefix(trimmed, "|") {
			columns = 0
			continue
		}
		n := strings.Count(trimmed, "|") - strings.Count(trimmed, `\|`)
		if columns == 0 {
			columns = n
		} else if n != columns {
			t.Errorf("table row at line %d has %d separators, want %d: %q", i+1, n, columns, line)
		}
	}
}
