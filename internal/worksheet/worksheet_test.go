package worksheet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/uvcalc/internal/testutil"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

const fullWorksheet = `
name: chloride
stock:
  method: solid
  salt: NaCl
  analyte: Cl
  concentration: 100
  volume: 100
series:
  flask_volume: 10
  stock_concentration: 100
  targets: [2, 4, 6]
calibration:
  concentrations: [0, 1, 2, 3, 4]
  absorbances: [0.01, 0.26, 0.51, 0.76, 1.01]
sample:
  absorbances: [0.26, 0.51]
  dilution_factor: 10
  flask_volume: 100
  mass: 1
`

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
		check     func(t *testing.T, ws *Worksheet)
	}{
		{
			name:  "full worksheet",
			input: fullWorksheet,
			check: func(t *testing.T, ws *Worksheet) {
				assert.Equal(t, "chloride", ws.Name)
				require.NotNil(t, ws.Stock)
				assert.Equal(t, "NaCl", ws.Stock.Salt)
				require.NotNil(t, ws.Series)
				assert.Equal(t, []float64{2, 4, 6}, ws.Series.Targets)
				require.NotNil(t, ws.Sample)
				assert.InDelta(t, 10, ws.Sample.DilutionFactor, 1e-12)
			},
		},
		{
			name:  "method defaults to solid",
			input: "stock:\n  salt: NaCl\n  analyte: Cl\n  concentration: 1\n  volume: 1\n",
			check: func(t *testing.T, ws *Worksheet) {
				assert.Equal(t, MethodSolid, ws.Stock.Method)
			},
		},
		{
			name:  "method is case insensitive",
			input: "stock:\n  method: Dilute\n  stock_concentration: 100\n  concentration: 10\n  volume: 50\n",
			check: func(t *testing.T, ws *Worksheet) {
				assert.Equal(t, MethodDilute, ws.Stock.Method)
			},
		},
		{name: "unknown key", input: "name: x\nsampel:\n  mass: 1\n", errSubstr: "sampel"},
		{name: "unknown method", input: "stock:\n  method: titrate\n", errSubstr: "unknown method"},
		{name: "empty", input: "", errSubstr: "empty"},
		{name: "no sections", input: "name: lonely\n", errSubstr: "no sections"},
		{name: "bad yaml", input: "series: [\n", errSubstr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := Parse([]byte(tt.input))
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			tt.check(t, ws)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullWorksheet), 0o600))

	ws, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "chloride", ws.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read worksheet")
}

func TestMarshalRoundTrip(t *testing.T) {
	ws, err := Parse([]byte(fullWorksheet))
	require.NoError(t, err)

	data, err := ws.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, ws, back)
}

func TestEvaluate_Full(t *testing.T) {
	ws, err := Parse([]byte(fullWorksheet))
	require.NoError(t, err)

	report, err := Evaluate(context.Background(), ws, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	require.NotNil(t, report.Stock)
	assert.InDelta(t, 58.44, report.Stock.SaltMolarMass, 1e-9)
	assert.InDelta(t, 35.45, report.Stock.AnalyteMolarMass, 1e-9)
	assert.InDelta(t, 0.016485, report.Stock.Mass, 1e-6)

	require.Len(t, report.Series, 3)
	assert.InDelta(t, 0.2, report.Series[0].StockVolume, 1e-12)

	require.NotNil(t, report.Calibration)
	assert.InDelta(t, 0.25, report.Calibration.Slope, 1e-9)
	assert.InDelta(t, 0.01, report.Calibration.Intercept, 1e-9)

	require.NotNil(t, report.Sample)
	assert.Equal(t, SectionCalibration, report.CalibrationSource)
	assert.InDelta(t, 1500, report.Sample.Summary.Mean, 1e-6)
}

func TestEvaluate_DiluteStock(t *testing.T) {
	ws := &Worksheet{Stock: &StockSection{Method: MethodDilute, StockConcentration: 1000, Concentration: 100, Volume: 100}}

	report, err := Evaluate(context.Background(), ws, nil)
	require.NoError(t, err)
	require.NotNil(t, report.Stock)
	assert.InDelta(t, 10, report.Stock.StockVolume, 1e-12)
	assert.Zero(t, report.Stock.Mass)
}

func TestEvaluate_SectionErrorsDoNotStopOthers(t *testing.T) {
	ws := &Worksheet{
		Stock:       &StockSection{Method: MethodSolid, Salt: "NaXx", Analyte: "Cl", Concentration: 1, Volume: 1},
		Series:      &SeriesSection{FlaskVolume: 10, StockConcentration: 100, Targets: []float64{1, 2}},
		Calibration: &CalibrationSection{Concentrations: []float64{1}, Absorbances: []float64{0.1}},
		Sample:      &SampleSection{Absorbances: []float64{0.2}, DilutionFactor: 1, FlaskVolume: 10, Mass: 1},
	}

	report, err := Evaluate(context.Background(), ws, testutil.NewTestLogger(t))
	require.Error(t, err)

	assert.ErrorIs(t, err, formula.ErrUnknownElement)
	assert.ErrorIs(t, err, spectro.ErrInvalidInput)
	assert.ErrorIs(t, err, ErrNoCalibration)

	var se *SectionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SectionStock, se.Section)

	assert.Nil(t, report.Stock)
	assert.Len(t, report.Series, 2)
	assert.Nil(t, report.Calibration)
	assert.Nil(t, report.Sample)
	assert.Contains(t, report.Errors, SectionStock)
	assert.Contains(t, report.Errors, SectionCalibration)
	assert.Contains(t, report.Errors, SectionSample)
	assert.NotContains(t, report.Errors, SectionSeries)
}

func TestEvaluate_SampleCalibrationSources(t *testing.T) {
	sample := &SampleSection{Absorbances: []float64{0.26}, DilutionFactor: 10, FlaskVolume: 100, Mass: 1}
	saved := &spectro.Calibration{Intercept: 0.01, Slope: 0.25}

	tests := []struct {
		name       string
		ws         *Worksheet
		opts       []Option
		wantSource string
		wantErr    error
	}{
		{
			name:    "nothing available",
			ws:      &Worksheet{Sample: sample},
			wantErr: ErrNoCalibration,
		},
		{
			name:       "fallback",
			ws:         &Worksheet{Sample: sample},
			opts:       []Option{WithFallbackCalibration(saved, "saved 1234abcd")},
			wantSource: "saved 1234abcd",
		},
		{
			name: "equation wins",
			ws: &Worksheet{Sample: &SampleSection{
				Absorbances: sample.Absorbances, DilutionFactor: 10, FlaskVolume: 100, Mass: 1,
				Equation: "y = 0.01 + 0.25x",
			}},
			opts:       []Option{WithFallbackCalibration(&spectro.Calibration{Slope: 5}, "saved")},
			wantSource: "equation",
		},
		{
			name: "failed fit does not fall back",
			ws: &Worksheet{
				Calibration: &CalibrationSection{Concentrations: []float64{1, 1}, Absorbances: []float64{0.1, 0.2}},
				Sample:      sample,
			},
			opts:    []Option{WithFallbackCalibration(saved, "saved")},
			wantErr: ErrNoCalibration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Evaluate(context.Background(), tt.ws, nil, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, report.Sample)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, report.CalibrationSource)
			assert.InDelta(t, 1000, report.Sample.Summary.Mean, 1e-9)
		})
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ws, err := Parse([]byte(fullWorksheet))
	require.NoError(t, err)

	report, err := Evaluate(ctx, ws, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report.Stock)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ws.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullWorksheet), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, testutil.NewTestLogger(t), func() { calls.Add(1) })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(fullWorksheet+"\n"), 0o600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
