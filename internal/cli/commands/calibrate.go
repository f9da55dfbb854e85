package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/state"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// calibrateOutput is the structured output of the calibrate command.
type calibrateOutput struct {
	Equation    string              `json:"equation" yaml:"equation"`
	Calibration spectro.Calibration `json:"calibration" yaml:"calibration"`
	SavedID     string              `json:"saved_id,omitempty" yaml:"saved_id,omitempty"`
}

// NewCalibrateCommand creates the calibrate command.
func NewCalibrateCommand() *cobra.Command {
	var (
		concs, absorbances string
		save               bool
		name               string
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit a calibration line to standards",
		Long: `Fit absorbance against concentration by least squares and report the line
y = a + bx, its coefficient of determination R², and the residual of every
standard.

With --save the line is stored and becomes the default for 'uvcalc sample'.`,
		Example: `  uvcalc calibrate --conc "0.2, 0.4, 0.6, 0.8" --abs "0.12, 0.23, 0.35, 0.46"

  # Save for later sample calculations
  uvcalc calibrate --conc "2,4,6,8" --abs "0.11,0.21,0.30,0.41" --save --name "Fe 510 nm"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			x, err := parseListFlag("conc", concs)
			if err != nil {
				return err
			}
			y, err := parseListFlag("abs", absorbances)
			if err != nil {
				return err
			}
			cal, err := spectro.FitCalibration(x, y)
			if err != nil {
				return err
			}

			out := calibrateOutput{Equation: cal.Equation(), Calibration: cal}
			if save {
				store, cleanup, err := cmdCtx.OpenStore()
				if err != nil {
					return err
				}
				defer cleanup()

				saved := &state.Calibration{Name: name, Fit: cal}
				if err := store.SaveCalibration(cmd.Context(), saved); err != nil {
					return err
				}
				cmdCtx.Logger.Info("saved calibration", slog.String("id", saved.ID), slog.String("name", name))
				out.SavedID = saved.ID
			}

			return renderCalibration(cmdCtx.Renderer, out)
		},
	}

	cmd.Flags().StringVar(&concs, "conc", "", "Comma-separated standard concentrations (required)")
	cmd.Flags().StringVar(&absorbances, "abs", "", "Comma-separated standard absorbances (required)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the calibration for later sample calculations")
	cmd.Flags().StringVar(&name, "name", "", "Name stored with a saved calibration")
	_ = cmd.MarkFlagRequired("conc")
	_ = cmd.MarkFlagRequired("abs")

	return cmd
}

func renderCalibration(r *output.Renderer, out calibrateOutput) error {
	if written, err := r.Data(out); written || err != nil {
		return err
	}

	r.Header(1, "Calibration")
	renderFitSummary(r, out.Calibration)
	r.Println()
	renderCalibrationPoints(r, out.Calibration.Points)

	if out.SavedID != "" {
		r.Println()
		r.Success(fmt.Sprintf("Saved calibration %s", shortID(out.SavedID)))
	}
	return nil
}

func renderFitSummary(r *output.Renderer, cal spectro.Calibration) {
	r.KeyValue("Equation", cal.Equation())
	r.KeyValue("Intercept (a)", r.Float(cal.Intercept))
	r.KeyValue("Slope (b)", r.Float(cal.Slope))
	if len(cal.Points) > 0 {
		r.KeyValue("R²", r.Float(cal.R2))
	}
}

func renderCalibrationPoints(r *output.Renderer, points []spectro.Point) {
	if len(points) == 0 {
		return
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatQuantity(p.Concentration),
			formatQuantity(p.Absorbance),
			r.Float(p.Predicted),
			r.Float(p.Residual),
		})
	}
	r.Table([]string{"Concentration", "Absorbance", "Predicted", "Residual"}, rows)
}

func shortID(id string) string {
	return (&state.Calibration{ID: id}).ShortID()
}
