package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/state"
	"github.com/leapstack-labs/uvcalc/internal/worksheet"
)

// errSectionsFailed is returned when one or more worksheet sections fail.
var errSectionsFailed = errors.New("worksheet sections failed")

// RunOptions holds options for the run command.
type RunOptions struct {
	Watch      bool
	Save       bool
	NoFallback bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <worksheet.yaml>",
		Short: "Evaluate a worksheet",
		Long: `Evaluate every section of a worksheet: stock preparation, dilution series,
calibration fit and sample content.

A failing section is reported and the remaining sections still run. When the
sample section has no calibration of its own, the most recently saved
calibration is used unless --no-fallback is given.

With --watch the worksheet is re-evaluated each time it is saved.`,
		Example: `  # Evaluate once
  uvcalc run worksheet.yaml

  # Re-evaluate on every save
  uvcalc run worksheet.yaml --watch

  # Save the fitted calibration for 'uvcalc sample'
  uvcalc run worksheet.yaml --save

  # Machine-readable report
  uvcalc run worksheet.yaml -o json`,
		Aliases: []string{"eval"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-evaluate when the worksheet changes")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the fitted calibration")
	cmd.Flags().BoolVar(&opts.NoFallback, "no-fallback", false, "Never use a saved calibration for the sample section")

	return cmd
}

func runRun(cmd *cobra.Command, path string, opts *RunOptions) error {
	cmdCtx := NewCommandContext(cmd)

	if !opts.Watch {
		return evaluateWorksheet(cmd.Context(), cmdCtx, path, opts)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// evaluations from the watcher never overlap
	var mu sync.Mutex
	evaluate := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := evaluateWorksheet(ctx, cmdCtx, path, opts); err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
	}

	evaluate()
	cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", path))

	err := worksheet.Watch(ctx, path, worksheet.DefaultDebounce, cmdCtx.Logger, func() {
		cmdCtx.Renderer.Println()
		cmdCtx.Renderer.Muted(fmt.Sprintf("%s changed, re-evaluating", path))
		evaluate()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// evaluateWorksheet loads, evaluates and renders one worksheet.
func evaluateWorksheet(ctx context.Context, cmdCtx *CommandContext, path string, opts *RunOptions) error {
	ws, err := worksheet.Load(path)
	if err != nil {
		return err
	}

	var evalOpts []worksheet.Option
	var store *state.SQLiteStore
	if needsStore(ws, opts) {
		s, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		store = s
	}

	if store != nil && !opts.NoFallback && ws.Sample != nil && ws.Sample.Equation == "" && ws.Calibration == nil {
		saved, err := store.LatestCalibration(ctx)
		switch {
		case err == nil:
			evalOpts = append(evalOpts, worksheet.WithFallbackCalibration(&saved.Fit, "saved "+saved.ShortID()))
		case !state.IsNotFound(err):
			return err
		}
	}

	report, evalErr := worksheet.Evaluate(ctx, ws, cmdCtx.Logger, evalOpts...)
	if report == nil {
		return evalErr
	}
	if errors.Is(evalErr, context.Canceled) {
		return evalErr
	}

	var savedID string
	if opts.Save && report.Calibration != nil && store != nil {
		saved := &state.Calibration{Name: ws.Name, Fit: *report.Calibration}
		if err := store.SaveCalibration(ctx, saved); err != nil {
			return err
		}
		cmdCtx.Logger.Info("saved calibration", slog.String("id", saved.ID), slog.String("worksheet", path))
		savedID = saved.ID
	}

	if err := renderReport(cmdCtx.Renderer, report, savedID); err != nil {
		return err
	}

	if failed := failedSections(report); len(failed) > 0 {
		return fmt.Errorf("%w: %s", errSectionsFailed, strings.Join(failed, ", "))
	}
	return nil
}

// needsStore reports whether evaluating ws touches saved calibrations.
func needsStore(ws *worksheet.Worksheet, opts *RunOptions) bool {
	if opts.Save && ws.Calibration != nil {
		return true
	}
	return !opts.NoFallback && ws.Sample != nil && ws.Sample.Equation == "" && ws.Calibration == nil
}

func failedSections(report *worksheet.Report) []string {
	var failed []string
	for _, section := range []string{
		worksheet.SectionStock,
		worksheet.SectionSeries,
		worksheet.SectionCalibration,
		worksheet.SectionSample,
	} {
		if _, ok := report.Errors[section]; ok {
			failed = append(failed, section)
		}
	}
	return failed
}

func renderReport(r *output.Renderer, report *worksheet.Report, savedID string) error {
	if written, err := r.Data(report); written || err != nil {
		return err
	}

	title := report.Name
	if title == "" {
		title = "Worksheet"
	}
	r.Header(1, title)

	if s := report.Stock; s != nil {
		r.Header(2, "Stock solution ("+s.Method+")")
		renderStockResult(r, s)
		r.Println()
	}

	if len(report.Series) > 0 {
		r.Header(2, "Dilution series")
		renderSeriesTable(r, report.Series)
		r.Println()
	}

	if report.Calibration != nil {
		r.Header(2, "Calibration")
		renderFitSummary(r, *report.Calibration)
		r.Println()
		renderCalibrationPoints(r, report.Calibration.Points)
		if savedID != "" {
			r.Success(fmt.Sprintf("Saved calibration %s", shortID(savedID)))
		}
		r.Println()
	}

	if report.Sample != nil {
		r.Header(2, "Sample")
		r.KeyValue("Calibration", fmt.Sprintf("%s (%s)", report.Sample.Calibration.Equation(), report.CalibrationSource))
		r.Println()
		renderSampleResult(r, report.Sample)
		r.Println()
	}

	if failed := failedSections(report); len(failed) > 0 {
		r.Header(2, "Errors")
		for _, section := range failed {
			r.StatusLine(section, "failed", report.Errors[section])
		}
	}
	return nil
}

func renderStockResult(r *output.Renderer, s *worksheet.StockResult) {
	if s.Method == worksheet.MethodDilute {
		r.KeyValue("Target", fmt.Sprintf("%s in %s mL", formatQuantity(s.Concentration), formatQuantity(s.Volume)))
		r.Success(fmt.Sprintf("Pipette %s mL of stock and make up to %s mL", r.Float(s.StockVolume), formatQuantity(s.Volume)))
		return
	}
	r.KeyValue("Salt", fmt.Sprintf("%s (%s g/mol)", s.Salt, r.Float(s.SaltMolarMass)))
	r.KeyValue("Analyte", fmt.Sprintf("%s (%s g/mol)", s.Analyte, r.Float(s.AnalyteMolarMass)))
	r.KeyValue("Target", fmt.Sprintf("%s mg/L in %s mL", formatQuantity(s.Concentration), formatQuantity(s.Volume)))
	r.Success(fmt.Sprintf("Weigh %s g of %s", r.Float(s.Mass), s.Salt))
}
