package worksheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/uvcalc/pkg/formula"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// Section names used in reports and errors.
const (
	SectionStock       = "stock"
	SectionSeries      = "series"
	SectionCalibration = "calibration"
	SectionSample      = "sample"
)

// ErrNoCalibration is returned by the sample section when neither the
// worksheet nor the caller supplies a calibration line.
var ErrNoCalibration = errors.New("no calibration available")

// SectionError reports the failure of one worksheet section.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// StockResult is the outcome of the stock section.
type StockResult struct {
	Method           string  `json:"method" yaml:"method"`
	Salt             string  `json:"salt,omitempty" yaml:"salt,omitempty"`
	Analyte          string  `json:"analyte,omitempty" yaml:"analyte,omitempty"`
	SaltMolarMass    float64 `json:"salt_molar_mass,omitempty" yaml:"salt_molar_mass,omitempty"`
	AnalyteMolarMass float64 `json:"analyte_molar_mass,omitempty" yaml:"analyte_molar_mass,omitempty"`
	Mass             float64 `json:"mass,omitempty" yaml:"mass,omitempty"`                 // g of salt
	StockVolume      float64 `json:"stock_volume,omitempty" yaml:"stock_volume,omitempty"` // mL of C1
	Concentration    float64 `json:"concentration" yaml:"concentration"`
	Volume           float64 `json:"volume" yaml:"volume"`
}

// Report collects the results of every section that succeeded.
type Report struct {
	Name              string                `json:"name,omitempty" yaml:"name,omitempty"`
	Stock             *StockResult          `json:"stock,omitempty" yaml:"stock,omitempty"`
	Series            []spectro.SeriesPoint `json:"series,omitempty" yaml:"series,omitempty"`
	Calibration       *spectro.Calibration  `json:"calibration,omitempty" yaml:"calibration,omitempty"`
	Sample            *spectro.SampleResult `json:"sample,omitempty" yaml:"sample,omitempty"`
	CalibrationSource string                `json:"calibration_source,omitempty" yaml:"calibration_source,omitempty"`
	Errors            map[string]string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Option configures Evaluate.
type Option func(*evaluator)

// WithCalculator sets the molar mass calculator used by the stock section.
func WithCalculator(c *formula.Calculator) Option {
	return func(e *evaluator) {
		if c != nil {
			e.calc = c
		}
	}
}

// WithFallbackCalibration supplies the calibration used by the sample
// section when the worksheet fits none and gives no equation.
func WithFallbackCalibration(cal *spectro.Calibration, source string) Option {
	return func(e *evaluator) {
		e.fallback = cal
		e.fallbackSource = source
	}
}

type evaluator struct {
	calc           *formula.Calculator
	fallback       *spectro.Calibration
	fallbackSource string
	logger         *slog.Logger
}

// Evaluate runs each present section in order. A failing section does not
// stop the others; the returned error joins one *SectionError per failure
// and the report still carries every section that succeeded.
func Evaluate(ctx context.Context, ws *Worksheet, logger *slog.Logger, opts ...Option) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &evaluator{calc: formula.NewCalculator(formula.Standard), logger: logger}
	for _, opt := range opts {
		opt(e)
	}

	report := &Report{Name: ws.Name}
	var errs []error
	fail := func(section string, err error) {
		logger.Debug("section failed", slog.String("section", section), slog.String("error", err.Error()))
		errs = append(errs, &SectionError{Section: section, Err: err})
		if report.Errors == nil {
			report.Errors = make(map[string]string)
		}
		report.Errors[section] = err.Error()
	}

	steps := []struct {
		name    string
		present bool
		run     func() error
	}{
		{SectionStock, ws.Stock != nil, func() error { return e.stock(ws.Stock, report) }},
		{SectionSeries, ws.Series != nil, func() error { return e.series(ws.Series, report) }},
		{SectionCalibration, ws.Calibration != nil, func() error { return e.calibration(ws.Calibration, report) }},
		{SectionSample, ws.Sample != nil, func() error { return e.sample(ws.Sample, ws.Calibration != nil, report) }},
	}

	for _, step := range steps {
		if !step.present {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger.Debug("evaluating section", slog.String("section", step.name))
		if err := step.run(); err != nil {
			fail(step.name, err)
		}
	}

	return report, errors.Join(errs...)
}

func (e *evaluator) stock(s *StockSection, r *Report) error {
	res := &StockResult{Method: s.Method, Concentration: s.Concentration, Volume: s.Volume}

	switch s.Method {
	case MethodDilute:
		v1, err := spectro.StockVolume(s.StockConcentration, s.Concentration, s.Volume)
		if err != nil {
			return err
		}
		res.StockVolume = v1
	default:
		saltMr, err := e.calc.MolarMass(s.Salt)
		if err != nil {
			return fmt.Errorf("salt: %w", err)
		}
		analyteMr, err := e.calc.MolarMass(s.Analyte)
		if err != nil {
			return fmt.Errorf("analyte: %w", err)
		}
		mass, err := spectro.SolidMass(saltMr, analyteMr, s.Concentration, s.Volume)
		if err != nil {
			return err
		}
		res.Salt, res.Analyte = s.Salt, s.Analyte
		res.SaltMolarMass, res.AnalyteMolarMass = saltMr, analyteMr
		res.Mass = mass
	}

	r.Stock = res
	return nil
}

func (e *evaluator) series(s *SeriesSection, r *Report) error {
	points, err := spectro.DilutionSeries(s.FlaskVolume, s.StockConcentration, s.Targets)
	if err != nil {
		return err
	}
	r.Series = points
	return nil
}

func (e *evaluator) calibration(s *CalibrationSection, r *Report) error {
	cal, err := spectro.FitCalibration(s.Concentrations, s.Absorbances)
	if err != nil {
		return err
	}
	r.Calibration = &cal
	return nil
}

func (e *evaluator) sample(s *SampleSection, fitted bool, r *Report) error {
	var (
		cal    spectro.Calibration
		source string
	)
	switch {
	case s.Equation != "":
		parsed, err := spectro.ParseEquation(s.Equation)
		if err != nil {
			return err
		}
		cal, source = parsed, "equation"
	case r.Calibration != nil:
		cal, source = *r.Calibration, SectionCalibration
	case fitted:
		return fmt.Errorf("%w: calibration section failed", ErrNoCalibration)
	case e.fallback != nil:
		cal, source = *e.fallback, e.fallbackSource
	default:
		return ErrNoCalibration
	}

	res, err := spectro.SampleContent(cal, spectro.SampleInput{
		Absorbances:    s.Absorbances,
		DilutionFactor: s.DilutionFactor,
		FlaskVolume:    s.FlaskVolume,
		SampleMass:     s.Mass,
	})
	if err != nil {
		return err
	}
	r.Sample = res
	r.CalibrationSource = source
	return nil
}
