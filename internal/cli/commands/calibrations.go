package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/internal/state"
)

// NewCalibrationsCommand creates the calibrations command and its subcommands.
func NewCalibrationsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "calibrations",
		Aliases: []string{"cals"},
		Short:   "Manage saved calibrations",
		Long: `List, show and delete calibrations saved with 'uvcalc calibrate --save'.

Calibrations are referenced by ID or by any unique ID prefix.`,
		Example: `  uvcalc calibrations
  uvcalc calibrations show 3f2a
  uvcalc calibrations delete 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalibrationsList(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of calibrations to list (0 for all)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved calibrations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalibrationsList(cmd, limit)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of calibrations to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved calibration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, cleanup, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := store.GetCalibration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderSavedCalibration(cmdCtx.Renderer, c)
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved calibration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, cleanup, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := store.GetCalibration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteCalibration(cmd.Context(), c.ID); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Deleted calibration %s", c.ShortID()))
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func runCalibrationsList(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	cals, err := store.ListCalibrations(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if cals == nil {
		cals = []*state.Calibration{}
	}

	if written, err := r.Data(cals); written || err != nil {
		return err
	}

	if len(cals) == 0 {
		r.Muted("No saved calibrations. Use 'uvcalc calibrate --save' to store one.")
		return nil
	}

	r.Header(1, fmt.Sprintf("Saved calibrations (%d)", len(cals)))
	if r.EffectiveMode() != output.ModeMarkdown {
		r.Println()
	}
	rows := make([][]string, 0, len(cals))
	for _, c := range cals {
		rows = append(rows, []string{
			c.ShortID(),
			c.Name,
			c.Fit.Equation(),
			r.Float(c.Fit.R2),
			fmt.Sprintf("%d", len(c.Fit.Points)),
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	r.Table([]string{"ID", "Name", "Equation", "R²", "Points", "Created"}, rows)
	return nil
}

func renderSavedCalibration(r *output.Renderer, c *state.Calibration) error {
	if written, err := r.Data(c); written || err != nil {
		return err
	}

	title := "Calibration " + c.ShortID()
	if c.Name != "" {
		title += " (" + c.Name + ")"
	}
	r.Header(1, title)
	r.KeyValue("ID", c.ID)
	r.KeyValue("Created", c.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	renderFitSummary(r, c.Fit)
	if len(c.Fit.Points) > 0 {
		r.Println()
		renderCalibrationPoints(r, c.Fit.Points)
	}
	return nil
}
