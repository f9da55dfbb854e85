package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// seriesOutput is the structured output of the series command.
type seriesOutput struct {
	FlaskVolume        float64               `json:"flask_volume" yaml:"flask_volume"`
	StockConcentration float64               `json:"stock_concentration" yaml:"stock_concentration"`
	Points             []spectro.SeriesPoint `json:"points" yaml:"points"`
}

// NewSeriesCommand creates the series command.
func NewSeriesCommand() *cobra.Command {
	var (
		flaskML, stockConc float64
		targets            string
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Plan a dilution series of calibration standards",
		Long: `Plan a series of calibration standards made from one stock solution.

For every target concentration C2 the volume of stock to pipette is
V1 = C2 × V / C(stock), made up to the flask volume V with solvent.`,
		Example: `  # Five standards in 10 mL flasks from a 100 mg/L stock
  uvcalc series --volume 10 --stock 100 --conc "2, 4, 6, 8, 10"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer

			concs, err := parseListFlag("conc", targets)
			if err != nil {
				return err
			}
			points, err := spectro.DilutionSeries(flaskML, stockConc, concs)
			if err != nil {
				return err
			}
			return renderSeries(r, seriesOutput{FlaskVolume: flaskML, StockConcentration: stockConc, Points: points})
		},
	}

	cmd.Flags().Float64Var(&flaskML, "volume", 0, "Volume of each flask in mL (required)")
	cmd.Flags().Float64Var(&stockConc, "stock", 0, "Stock concentration (required)")
	cmd.Flags().StringVar(&targets, "conc", "", "Comma-separated target concentrations (required)")
	for _, name := range []string{"volume", "stock", "conc"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func renderSeries(r *output.Renderer, s seriesOutput) error {
	if written, err := r.Data(s); written || err != nil {
		return err
	}

	r.Header(1, "Dilution series")
	r.KeyValue("Flask volume", formatQuantity(s.FlaskVolume)+" mL")
	r.KeyValue("Stock concentration", formatQuantity(s.StockConcentration))
	r.Println()
	renderSeriesTable(r, s.Points)
	return nil
}

func renderSeriesTable(r *output.Renderer, points []spectro.SeriesPoint) {
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			formatQuantity(p.Concentration),
			r.Float(p.StockVolume),
			r.Float(p.SolventVolume),
		})
	}
	r.Table([]string{"#", "Concentration", "Stock (mL)", "Solvent (mL)"}, rows)
}
