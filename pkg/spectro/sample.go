package spectro

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleInput describes how the measured solution was prepared.
type SampleInput struct {
	Absorbances    []float64 `json:"absorbances" yaml:"absorbances"`
	DilutionFactor float64   `json:"dilution_factor" yaml:"dilution_factor"`
	FlaskVolume    float64   `json:"flask_volume" yaml:"flask_volume"` // mL
	SampleMass     float64   `json:"sample_mass" yaml:"sample_mass"`   // g
}

// Replicate is one measured absorbance and what it implies.
type Replicate struct {
	Absorbance    float64 `json:"absorbance" yaml:"absorbance"`
	Concentration float64 `json:"concentration" yaml:"concentration"` // mg/L in the measured solution
	Content       float64 `json:"content" yaml:"content"`             // mg/kg in the sample
}

// Summary holds the replicate statistics of sample content.
// With a single replicate StdDev and RSD are 0.
type Summary struct {
	N      int     `json:"n" yaml:"n"`
	Mean   float64 `json:"mean" yaml:"mean"`       // mg/kg
	StdDev float64 `json:"std_dev" yaml:"std_dev"` // sample standard deviation, mg/kg
	RSD    float64 `json:"rsd" yaml:"rsd"`         // %
	RPD    float64 `json:"rpd" yaml:"rpd"`         // %, (max − min) / mean
}

// SampleResult is the outcome of SampleContent.
type SampleResult struct {
	Calibration Calibration `json:"calibration" yaml:"calibration"`
	Replicates  []Replicate `json:"replicates" yaml:"replicates"`
	Summary     Summary     `json:"summary" yaml:"summary"`
}

// SampleContent back-calculates sample content from absorbances:
//
//	C = (A − a) / b                       mg/L
//	content = (C × fp × V/1000) / m × 1000  mg/kg
func SampleContent(cal Calibration, in SampleInput) (*SampleResult, error) {
	if len(in.Absorbances) == 0 {
		return nil, fmt.Errorf("%w: no sample absorbances", ErrInvalidInput)
	}
	if err := requirePositive("dilution factor", in.DilutionFactor); err != nil {
		return nil, err
	}
	if err := requirePositive("flask volume", in.FlaskVolume); err != nil {
		return nil, err
	}
	if err := requirePositive("sample mass", in.SampleMass); err != nil {
		return nil, err
	}

	res := &SampleResult{
		Calibration: Calibration{Intercept: cal.Intercept, Slope: cal.Slope, R2: cal.R2},
		Replicates:  make([]Replicate, len(in.Absorbances)),
	}
	contents := make([]float64, len(in.Absorbances))
	for i, a := range in.Absorbances {
		conc, err := cal.Concentration(a)
		if err != nil {
			return nil, err
		}
		content := (conc * in.DilutionFactor * in.FlaskVolume / 1000) / in.SampleMass * 1000
		res.Replicates[i] = Replicate{Absorbance: a, Concentration: conc, Content: content}
		contents[i] = content
	}

	res.Summary = Summarize(contents)
	return res, nil
}

// Summarize computes mean, sample standard deviation, RSD and RPD.
// RSD and RPD are 0 when the mean is 0.
func Summarize(xs []float64) Summary {
	s := Summary{N: len(xs)}
	if len(xs) == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		_, s.StdDev = stat.MeanStdDev(xs, nil)
	}
	if s.Mean != 0 {
		s.RSD = s.StdDev / s.Mean * 100
		s.RPD = (floats.Max(xs) - floats.Min(xs)) / s.Mean * 100
	}
	return s
}
