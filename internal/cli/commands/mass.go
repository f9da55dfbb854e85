package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
)

// NewMassCommand creates the mass command.
func NewMassCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "mass <formula>...",
		Short: "Calculate molar masses of chemical formulas",
		Long: `Calculate the molar mass (g/mol) of one or more chemical formulas and show
how each element contributes.

Formulas may contain parenthesised groups with counts, and hydrate parts
joined by '.' or '·' with an optional leading multiplier.`,
		Example: `  # Single formula with breakdown
  uvcalc mass "Ca(OH)2"

  # Hydrates
  uvcalc mass CuSO4.5H2O "CuSO4·5H2O"

  # Several formulas, one line each
  uvcalc mass --short NaCl KMnO4 K2Cr2O7

  # Machine readable
  uvcalc mass -o json "Al2(SO4)3"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMass(cmd, args, short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only formula and molar mass")

	return cmd
}

// massOutcome is the result of evaluating one formula.
type massOutcome struct {
	Formula string          `json:"formula" yaml:"formula"`
	Result  *formula.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
	err     error
}

// evaluateFormulas computes every formula concurrently; outcomes keep input order.
func evaluateFormulas(ctx context.Context, calc *formula.Calculator, formulas []string) ([]massOutcome, error) {
	outcomes := make([]massOutcome, len(formulas))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range formulas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := calc.Breakdown(f)
			outcomes[i] = massOutcome{Formula: f, Result: res, err: err}
			if err != nil {
				outcomes[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func runMass(cmd *cobra.Command, formulas []string, short bool) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	outcomes, err := evaluateFormulas(cmd.Context(), formula.NewCalculator(formula.Standard), formulas)
	if err != nil {
		return err
	}

	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			cmdCtx.Logger.Debug("formula rejected", slog.String("formula", o.Formula), slog.String("error", o.err.Error()))
			errs = append(errs, o.err)
		}
	}

	if written, err := r.Data(outcomes); written || err != nil {
		if err != nil {
			return err
		}
		return massError(errs, len(outcomes))
	}

	for i, o := range outcomes {
		if o.err != nil {
			r.Error(o.err.Error())
			continue
		}
		if short {
			renderMassLine(r, o.Result)
			continue
		}
		if i > 0 {
			r.Println()
		}
		renderMassResult(r, o.Result)
	}

	return massError(errs, len(outcomes))
}

func massError(errs []error, total int) error {
	switch {
	case len(errs) == 0:
		return nil
	case total == 1:
		return errs[0]
	}
	return fmt.Errorf("%d of %d formulas are invalid: %w", len(errs), total, errors.Join(errs...))
}

// renderMassLine writes "formula  mass g/mol".
func renderMassLine(r *output.Renderer, res *formula.Result) {
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue(res.Formula, r.Float(res.MolarMass)+" g/mol"))
		return
	}
	r.Printf("%s  %s g/mol\n", r.Styles().Bold.Render(res.Formula), r.Styles().Value.Render(r.Float(res.MolarMass)))
}

// renderMassResult writes the molar mass and the per-element breakdown.
func renderMassResult(r *output.Renderer, res *formula.Result) {
	r.Header(2, res.Formula)
	r.KeyValue("Molar mass", r.Float(res.MolarMass)+" g/mol")
	r.KeyValue("Hill formula", res.Hill)
	r.Println()

	rows := make([][]string, 0, len(res.Contributions))
	for _, c := range res.Contributions {
		rows = append(rows, []string{
			c.Symbol,
			c.Name,
			strconv.Itoa(c.Count),
			r.Float(c.AtomicMass),
			r.Float(c.Subtotal),
			strconv.FormatFloat(c.Percent, 'f', 2, 64),
		})
	}
	r.Table([]string{"Element", "Name", "Count", "Atomic mass", "Subtotal", "Mass %"}, rows)
}
