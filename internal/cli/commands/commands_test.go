package commands

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/cli/testutil"
	itestutil "github.com/leapstack-labs/uvcalc/internal/testutil"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewMassCommand(), "mass <formula>...", []string{"short"}},
		{NewElementsCommand(), "elements [symbol...]", nil},
		{NewStockCommand(), "stock", nil},
		{NewSeriesCommand(), "series", []string{"volume", "stock", "conc"}},
		{NewCalibrateCommand(), "calibrate", []string{"conc", "abs", "save", "name"}},
		{NewCalibrationsCommand(), "calibrations", []string{"limit"}},
		{NewSampleCommand(), "sample", []string{"abs", "dilution", "volume", "mass", "equation", "calibration"}},
		{NewRunCommand(), "run <worksheet.yaml>", []string{"watch", "save", "no-fallback"}},
		{NewREPLCommand(), "repl", []string{"short"}},
		{NewInitCommand(), "init [directory]", []string{"force", "example"}},
		{NewDoctorCommand(), "doctor", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestMassCommand(t *testing.T) {
	t.Run("markdown breakdown", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewMassCommand(), cfg, "NaCl")
		require.NoError(t, res.Err)

		assert.Contains(t, res.Stdout, "## NaCl")
		assert.Contains(t, res.Stdout, "- **Molar mass:** 58.4400 g/mol")
		assert.Contains(t, res.Stdout, "| Na | Sodium | 1 |")
		testutil.AssertNoANSI(t, res.Stdout)
		testutil.AssertValidMarkdown(t, res.Stdout)
	})

	t.Run("short", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewMassCommand(), cfg, "--short", "H2O", "CuSO4.5H2O")
		require.NoError(t, res.Err)

		assert.Contains(t, res.Stdout, "- **H2O:** 18.0160 g/mol")
		assert.Contains(t, res.Stdout, "- **CuSO4.5H2O:** 249.6860 g/mol")
	})

	t.Run("json keeps input order", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeJSON)
		res := testutil.ExecuteCommand(t, NewMassCommand(), cfg, "KMnO4", "NaCl", "Ca(OH)2")
		require.NoError(t, res.Err)

		var outcomes []massOutcome
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &outcomes))
		require.Len(t, outcomes, 3)
		assert.Equal(t, "KMnO4", outcomes[0].Formula)
		assert.InDelta(t, 158.036, outcomes[0].Result.MolarMass, 1e-9)
		assert.Equal(t, "NaCl", outcomes[1].Formula)
		assert.Equal(t, "Ca(OH)2", outcomes[2].Formula)
	})

	t.Run("invalid formula among valid ones", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewMassCommand(), cfg, "NaCl", "Xx2")
		require.Error(t, res.Err)

		assert.ErrorIs(t, res.Err, formula.ErrUnknownElement)
		assert.Contains(t, res.Err.Error(), "1 of 2 formulas are invalid")
		assert.Contains(t, res.Stdout, "58.4400")
		assert.Contains(t, res.Stderr, "Error:")
	})

	t.Run("single invalid formula", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewMassCommand(), cfg, "Ca(OH")
		require.Error(t, res.Err)
		assert.ErrorIs(t, res.Err, formula.ErrMalformedNesting)
	})
}

func TestElementsCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{name: "all", args: nil, want: []string{"# Elements (", "| 26 | Fe | Iron | 55.845 |"}},
		{name: "selected", args: []string{"Fe", "Cu"}, want: []string{"# Elements (2)", "| 29 | Cu | Copper | 63.546 |"}},
		{name: "wrong case", args: []string{"CL"}, wantErr: `did you mean "Cl"?`},
		{name: "unknown", args: []string{"Qq"}, wantErr: `"Qq"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig(t, output.ModeMarkdown)
			res := testutil.ExecuteCommand(t, NewElementsCommand(), cfg, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, res.Err)
				assert.ErrorIs(t, res.Err, formula.ErrUnknownElement)
				assert.Contains(t, res.Err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, res.Err)
			for _, want := range tt.want {
				assert.Contains(t, res.Stdout, want)
			}
		})
	}
}

func TestStockCommand(t *testing.T) {
	t.Run("solid", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeJSON)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg,
			"solid", "--salt", "NaCl", "--analyte", "Cl", "--conc", "1000", "--volume", "100")
		require.NoError(t, res.Err)

		var plan solidPlan
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &plan))
		assert.InDelta(t, 58.44, plan.SaltMolarMass, 1e-9)
		assert.InDelta(t, 35.45, plan.AnalyteMolarMass, 1e-9)
		assert.InDelta(t, 0.164852, plan.Mass, 1e-6)
	})

	t.Run("solid markdown", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg,
			"solid", "--salt", "NaCl", "--analyte", "Cl", "--conc", "1000", "--volume", "100")
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stdout, "**Weigh 0.1649 g of NaCl**")
	})

	t.Run("solid unknown salt", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg,
			"solid", "--salt", "Zz", "--analyte", "Cl", "--conc", "1000", "--volume", "100")
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "salt:")
	})

	t.Run("solid missing flag", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg, "solid", "--salt", "NaCl")
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "required flag")
	})

	t.Run("dilute", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeJSON)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg, "dilute", "--c1", "1000", "--c2", "10", "--v2", "100")
		require.NoError(t, res.Err)

		var plan dilutePlan
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &plan))
		assert.InDelta(t, 1.0, plan.StockVolume, 1e-12)
		assert.InDelta(t, 99.0, plan.SolventVolume, 1e-12)
	})

	t.Run("dilute above stock warns", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg, "dilute", "--c1", "10", "--c2", "20", "--v2", "50")
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stderr, "Warning:")
		assert.Contains(t, res.Stdout, "Pipette 100.0000 mL")
	})

	t.Run("dilute zero stock", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewStockCommand(), cfg, "dilute", "--c1", "0", "--c2", "20", "--v2", "50")
		require.Error(t, res.Err)
		assert.ErrorIs(t, res.Err, spectro.ErrInvalidInput)
	})
}

func TestSeriesCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeJSON)
		res := testutil.ExecuteCommand(t, NewSeriesCommand(), cfg, "--volume", "10", "--stock", "100", "--conc", "2, 4")
		require.NoError(t, res.Err)

		var out seriesOutput
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &out))
		require.Len(t, out.Points, 2)
		assert.InDelta(t, 0.2, out.Points[0].StockVolume, 1e-12)
		assert.InDelta(t, 9.8, out.Points[0].SolventVolume, 1e-12)
		assert.InDelta(t, 0.4, out.Points[1].StockVolume, 1e-12)
	})

	t.Run("markdown table", func(t *testing.T) {
		cfg := testutil.TestConfig(t, output.ModeMarkdown)
		res := testutil.ExecuteCommand(t, NewSeriesCommand(), cfg, "--volume", "10", "--stock", "100", "--conc", "2,4")
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stdout, "| 1 | 2 | 0.2000 | 9.8000 |")
		testutil.AssertValidMarkdown(t, res.Stdout)
	})

	tests := []struct {
		name string
		conc string
	}{
		{"above stock", "50, 200"},
		{"not a number", "2, x"},
		{"empty", " , "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig(t, output.ModeMarkdown)
			res := testutil.ExecuteCommand(t, NewSeriesCommand(), cfg, "--volume", "10", "--stock", "100", "--conc", tt.conc)
			require.Error(t, res.Err)
			assert.ErrorIs(t, res.Err, spectro.ErrInvalidInput)
		})
	}
}

func TestREPLSession(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	s := newREPLSession(tr.Renderer, formula.NewCalculator(formula.Standard), true)

	assert.False(t, s.handleLine("   "))
	assert.False(t, s.handleLine("NaCl"))
	assert.Contains(t, tr.Output(), "- **NaCl:** 58.4400 g/mol")

	assert.False(t, s.handleLine("Na("))
	assert.Contains(t, tr.ErrorOutput(), "Error:")

	assert.False(t, s.handleLine(".precision 2"))
	assert.Equal(t, 2, tr.Precision())
	assert.False(t, s.handleLine(".precision 99"))
	assert.Equal(t, 2, tr.Precision())

	assert.False(t, s.handleLine(".full"))
	tr.Out.Reset()
	assert.False(t, s.handleLine("H2O"))
	assert.Contains(t, tr.Output(), "## H2O")
	assert.Contains(t, tr.Output(), "18.02 g/mol")

	tr.Out.Reset()
	assert.False(t, s.handleLine(".elements Fe"))
	assert.Contains(t, tr.Output(), "| 26 | Fe | Iron | 55.845 |")

	assert.False(t, s.handleLine(".bogus"))
	assert.Contains(t, tr.ErrorOutput(), "Unknown command: .bogus")

	assert.True(t, s.handleLine(".quit"))
	assert.True(t, s.handleLine(".EXIT"))
}

func TestFormulaCompleter(t *testing.T) {
	c := newFormulaCompleter(formula.Standard)
	children := c.GetChildren()

	names := make(map[string]bool, len(children))
	for _, child := range children {
		names[string(child.GetName())] = true
	}
	assert.True(t, names[".help "])
	assert.True(t, names[".elements "])
	assert.True(t, names["Fe "])
	assert.Len(t, children, 8+formula.Standard.Len())
}

func TestPrepareHistoryFile(t *testing.T) {
	cfg := testutil.TestConfig(t, output.ModeText)
	logger := itestutil.NewTestLogger(t)

	assert.Empty(t, prepareHistoryFile(cfg, logger))

	cfg.HistoryFile = filepath.Join(t.TempDir(), "nested", "history")
	assert.Equal(t, cfg.HistoryFile, prepareHistoryFile(cfg, logger))
	assert.DirExists(t, filepath.Dir(cfg.HistoryFile))
}

func TestMassError(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	assert.NoError(t, massError(nil, 3))
	assert.Equal(t, errA, massError([]error{errA}, 1))

	err := massError([]error{errA, errB}, 3)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "2 of 3 formulas are invalid")
}
