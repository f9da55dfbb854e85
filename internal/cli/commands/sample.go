package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/state"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// errNoSavedCalibration is returned by sample when no line is given and none is saved.
var errNoSavedCalibration = errors.New("no calibration: pass --equation or --calibration, or save one with 'uvcalc calibrate --save'")

// sampleOutput is the structured output of the sample command.
type sampleOutput struct {
	CalibrationSource string                `json:"calibration_source" yaml:"calibration_source"`
	Input             spectro.SampleInput   `json:"input" yaml:"input"`
	Result            *spectro.SampleResult `json:"result" yaml:"result"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand() *cobra.Command {
	var (
		absorbances   string
		dilution      float64
		flaskML, mass float64
		equation      string
		calibrationID string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Analyte content of a sample from its absorbances",
		Long: `Back-calculate the analyte content of a sample from replicate absorbances.

For each absorbance A:

  C       = (A - a) / b                        mg/L in the measured solution
  content = (C × fp × V/1000) / m × 1000        mg/kg in the sample

and the replicates are summarised by mean, standard deviation, RSD and RPD.

The calibration line comes from --equation, from a saved calibration given by
--calibration, or otherwise from the most recently saved calibration.`,
		Example: `  uvcalc sample --abs "0.452, 0.448, 0.455" --dilution 10 --volume 50 --mass 0.5 \
      --equation "y = 0.0012 + 0.0567x"

  # Use a saved calibration
  uvcalc sample --abs "0.452,0.448" --dilution 10 --volume 50 --mass 0.5 --calibration 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			abs, err := parseListFlag("abs", absorbances)
			if err != nil {
				return err
			}
			cal, source, err := resolveCalibration(cmd.Context(), cmdCtx, equation, calibrationID)
			if err != nil {
				return err
			}
			cmdCtx.Logger.Debug("using calibration",
				slog.String("source", source),
				slog.String("equation", cal.Equation()))

			in := spectro.SampleInput{
				Absorbances:    abs,
				DilutionFactor: dilution,
				FlaskVolume:    flaskML,
				SampleMass:     mass,
			}
			res, err := spectro.SampleContent(cal, in)
			if err != nil {
				return err
			}
			return renderSample(cmdCtx.Renderer, sampleOutput{CalibrationSource: source, Input: in, Result: res})
		},
	}

	cmd.Flags().StringVar(&absorbances, "abs", "", "Comma-separated sample absorbances (required)")
	cmd.Flags().Float64Var(&dilution, "dilution", 1, "Dilution factor fp")
	cmd.Flags().Float64Var(&flaskML, "volume", 0, "Volume of the sample flask in mL (required)")
	cmd.Flags().Float64Var(&mass, "mass", 0, "Sample mass in g (required)")
	cmd.Flags().StringVar(&equation, "equation", "", `Calibration line, e.g. "y = 0.0012 + 0.0567x"`)
	cmd.Flags().StringVar(&calibrationID, "calibration", "", "ID or ID prefix of a saved calibration")
	cmd.MarkFlagsMutuallyExclusive("equation", "calibration")
	for _, name := range []string{"abs", "volume", "mass"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// resolveCalibration picks the calibration line for sample: an explicit
// equation, a saved calibration by ID, or the latest saved one.
func resolveCalibration(ctx context.Context, cmdCtx *CommandContext, equation, id string) (spectro.Calibration, string, error) {
	if equation != "" {
		cal, err := spectro.ParseEquation(equation)
		if err != nil {
			return spectro.Calibration{}, "", fmt.Errorf("--equation: %w", err)
		}
		return cal, "equation", nil
	}

	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		return spectro.Calibration{}, "", err
	}
	defer cleanup()

	saved, err := lookupCalibration(ctx, store, id)
	if err != nil {
		return spectro.Calibration{}, "", err
	}
	return saved.Fit, "saved " + saved.ShortID(), nil
}

// lookupCalibration returns the saved calibration with the given ID prefix,
// or the latest one when id is empty.
func lookupCalibration(ctx context.Context, store state.Store, id string) (*state.Calibration, error) {
	if id != "" {
		return store.GetCalibration(ctx, id)
	}
	saved, err := store.LatestCalibration(ctx)
	if state.IsNotFound(err) {
		return nil, errNoSavedCalibration
	}
	return saved, err
}

func renderSample(r *output.Renderer, out sampleOutput) error {
	if written, err := r.Data(out); written || err != nil {
		return err
	}

	r.Header(1, "Sample content")
	r.KeyValue("Calibration", fmt.Sprintf("%s (%s)", out.Result.Calibration.Equation(), out.CalibrationSource))
	r.KeyValue("Dilution factor", formatQuantity(out.Input.DilutionFactor))
	r.KeyValue("Flask volume", formatQuantity(out.Input.FlaskVolume)+" mL")
	r.KeyValue("Sample mass", formatQuantity(out.Input.SampleMass)+" g")
	r.Println()
	renderSampleResult(r, out.Result)
	return nil
}

func renderSampleResult(r *output.Renderer, res *spectro.SampleResult) {
	rows := make([][]string, 0, len(res.Replicates))
	for i, rep := range res.Replicates {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			formatQuantity(rep.Absorbance),
			r.Float(rep.Concentration),
			r.Float(rep.Content),
		})
	}
	r.Table([]string{"#", "Absorbance", "C (mg/L)", "Content (mg/kg)"}, rows)

	s := res.Summary
	r.Header(2, "Summary")
	r.KeyValue("Replicates", fmt.Sprintf("%d", s.N))
	r.KeyValue("Mean", r.Float(s.Mean)+" mg/kg")
	r.KeyValue("SD", r.Float(s.StdDev)+" mg/kg")
	r.KeyValue("RSD", r.Float(s.RSD)+" %")
	r.KeyValue("RPD", r.Float(s.RPD)+" %")
}
