// Package worksheet loads and evaluates uvcalc worksheets: a YAML file
// describing a whole analysis from stock preparation through calibration to
// sample content.
//
// A minimal worksheet:
//
//	name: iron in spinach
//	stock:
//	  method: solid
//	  salt: FeSO4.7H2O
//	  analyte: Fe
//	  concentration: 100   # mg/L
//	  volume: 100          # mL
//	series:
//	  flask_volume: 10
//	  stock_concentration: 100
//	  targets: [2, 4, 6, 8]
//	calibration:
//	  concentrations: [2, 4, 6, 8]
//	  absorbances: [0.11, 0.21, 0.30, 0.41]
//	sample:
//	  absorbances: [0.25, 0.26]
//	  dilution_factor: 10
//	  flask_volume: 100
//	  mass: 1.0
package worksheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stock preparation methods.
const (
	MethodSolid  = "solid"
	MethodDilute = "dilute"
)

// Worksheet is a whole analysis. Every section is optional.
type Worksheet struct {
	Name        string              `yaml:"name"`
	Stock       *StockSection       `yaml:"stock,omitempty"`
	Series      *SeriesSection      `yaml:"series,omitempty"`
	Calibration *CalibrationSection `yaml:"calibration,omitempty"`
	Sample      *SampleSection      `yaml:"sample,omitempty"`
}

// StockSection prepares a stock solution either by weighing a salt (solid)
// or by diluting a more concentrated stock (dilute).
type StockSection struct {
	Method string `yaml:"method"`

	// solid
	Salt    string `yaml:"salt,omitempty"`
	Analyte string `yaml:"analyte,omitempty"`

	// dilute: C1
	StockConcentration float64 `yaml:"stock_concentration,omitempty"`

	Concentration float64 `yaml:"concentration"` // mg/L (solid) or C2 (dilute)
	Volume        float64 `yaml:"volume"`        // mL
}

// SeriesSection plans the calibration standards.
type SeriesSection struct {
	FlaskVolume        float64   `yaml:"flask_volume"`
	StockConcentration float64   `yaml:"stock_concentration"`
	Targets            []float64 `yaml:"targets"`
}

// CalibrationSection holds measured standards.
type CalibrationSection struct {
	Concentrations []float64 `yaml:"concentrations"`
	Absorbances    []float64 `yaml:"absorbances"`
}

// SampleSection holds the sample measurements. Equation overrides the
// calibration fitted in the same worksheet.
type SampleSection struct {
	Absorbances    []float64 `yaml:"absorbances"`
	DilutionFactor float64   `yaml:"dilution_factor"`
	FlaskVolume    float64   `yaml:"flask_volume"`
	Mass           float64   `yaml:"mass"`
	Equation       string    `yaml:"equation,omitempty"`
}

// Load reads and decodes the worksheet at path.
func Load(path string) (*Worksheet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is user-provided worksheet
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	ws, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ws, nil
}

// Parse decodes a worksheet. Unknown keys are rejected.
func Parse(data []byte) (*Worksheet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ws Worksheet
	if err := dec.Decode(&ws); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("worksheet is empty")
		}
		return nil, fmt.Errorf("failed to parse worksheet: %w", err)
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Validate checks structure only; numeric ranges are checked on evaluation.
func (w *Worksheet) Validate() error {
	if w.Stock == nil && w.Series == nil && w.Calibration == nil && w.Sample == nil {
		return errors.New("worksheet has no sections")
	}
	if w.Stock != nil {
		w.Stock.Method = strings.ToLower(strings.TrimSpace(w.Stock.Method))
		switch w.Stock.Method {
		case "":
			w.Stock.Method = MethodSolid
		case MethodSolid, MethodDilute:
		default:
			return fmt.Errorf("stock: unknown method %q (expected %s or %s)", w.Stock.Method, MethodSolid, MethodDilute)
		}
	}
	return nil
}

// Marshal encodes the worksheet back to YAML.
func (w *Worksheet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
