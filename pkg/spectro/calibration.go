package spectro

import (
	"fmt"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Calibration is the fitted line absorbance = Intercept + Slope × concentration.
type Calibration struct {
	Intercept float64 `json:"intercept" yaml:"intercept"` // a
	Slope     float64 `json:"slope" yaml:"slope"`         // b
	R2        float64 `json:"r2" yaml:"r2"`
	Points    []Point `json:"points,omitempty" yaml:"points,omitempty"`
}

// Point is one standard: known concentration and measured absorbance.
type Point struct {
	Concentration float64 `json:"concentration" yaml:"concentration"`
	Absorbance    float64 `json:"absorbance" yaml:"absorbance"`
	Predicted     float64 `json:"predicted" yaml:"predicted"`
	Residual      float64 `json:"residual" yaml:"residual"`
}

// FitCalibration fits absorbance on concentration by ordinary least squares.
func FitCalibration(conc, abs []float64) (Calibration, error) {
	if len(conc) != len(abs) {
		return Calibration{}, fmt.Errorf("%w: %d concentrations but %d absorbances", ErrInvalidInput, len(conc), len(abs))
	}
	if len(conc) < 2 {
		return Calibration{}, fmt.Errorf("%w: at least 2 standards are needed, got %d", ErrInvalidInput, len(conc))
	}
	if constant(conc) {
		return Calibration{}, fmt.Errorf("%w: all standard concentrations are equal", ErrInvalidInput)
	}

	a, b := stat.LinearRegression(conc, abs, nil, false)
	cal := Calibration{
		Intercept: a,
		Slope:     b,
		R2:        stat.RSquared(conc, abs, nil, a, b),
		Points:    make([]Point, len(conc)),
	}
	for i := range conc {
		pred := cal.Predict(conc[i])
		cal.Points[i] = Point{
			Concentration: conc[i],
			Absorbance:    abs[i],
			Predicted:     pred,
			Residual:      abs[i] - pred,
		}
	}
	return cal, nil
}

// Predict returns the absorbance expected at concentration c.
func (c Calibration) Predict(conc float64) float64 {
	return c.Intercept + c.Slope*conc
}

// Concentration inverts the line: (A − a) / b.
func (c Calibration) Concentration(absorbance float64) (float64, error) {
	if c.Slope == 0 {
		return 0, fmt.Errorf("%w: calibration slope is zero", ErrInvalidInput)
	}
	return (absorbance - c.Intercept) / c.Slope, nil
}

// Equation renders the line as "y = a + bx" with four decimals, the form
// ParseEquation reads back.
func (c Calibration) Equation() string {
	return fmt.Sprintf("y = %.4f + %.4fx", c.Intercept, c.Slope)
}

var equationPattern = regexp.MustCompile(`y\s*=\s*([-+]?\d*\.?\d+)\s*\+\s*([-+]?\d*\.?\d+)x`)

// ParseEquation reads a calibration line written as "y = a + bx".
// R2 and Points of the result are zero.
func ParseEquation(s string) (Calibration, error) {
	m := equationPattern.FindStringSubmatch(s)
	if m == nil {
		return Calibration{}, fmt.Errorf("%w: equation %q is not of the form y = a + bx", ErrInvalidInput, s)
	}
	a, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: intercept %q: %v", ErrInvalidInput, m[1], err)
	}
	b, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: slope %q: %v", ErrInvalidInput, m[2], err)
	}
	return Calibration{Intercept: a, Slope: b}, nil
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
