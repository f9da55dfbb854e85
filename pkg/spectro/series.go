package spectro

import "fmt"

// SeriesPoint is one flask of a standard series.
type SeriesPoint struct {
	Concentration float64 `json:"concentration" yaml:"concentration"` // target, mg/L
	StockVolume   float64 `json:"stock_volume" yaml:"stock_volume"`   // mL of stock to pipette
	SolventVolume float64 `json:"solvent_volume" yaml:"solvent_volume"`
}

// DilutionSeries computes the stock and solvent volumes for each target
// concentration made up to flaskML from a stock at stockConc.
func DilutionSeries(flaskML, stockConc float64, targets []float64) ([]SeriesPoint, error) {
	if err := requirePositive("flask volume", flaskML); err != nil {
		return nil, err
	}
	if err := requirePositive("stock concentration", stockConc); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no target concentrations", ErrInvalidInput)
	}

	points := make([]SeriesPoint, 0, len(targets))
	for _, c2 := range targets {
		if c2 < 0 {
			return nil, fmt.Errorf("%w: target concentration %v is negative", ErrInvalidInput, c2)
		}
		if c2 > stockConc {
			return nil, fmt.Errorf("%w: target concentration %v exceeds stock concentration %v", ErrInvalidInput, c2, stockConc)
		}
		v1 := c2 * flaskML / stockConc
		points = append(points, SeriesPoint{
			Concentration: c2,
			StockVolume:   v1,
			SolventVolume: flaskML - v1,
		})
	}
	return points, nil
}
