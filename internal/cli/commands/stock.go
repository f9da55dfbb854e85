package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// NewStockCommand creates the stock command and its subcommands.
func NewStockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Plan a stock solution",
		Long: `Plan the preparation of a stock solution, either by weighing a salt
(solid) or by diluting a more concentrated solution (dilute).`,
	}

	cmd.AddCommand(newStockSolidCommand())
	cmd.AddCommand(newStockDiluteCommand())

	return cmd
}

// solidPlan is the output of stock solid.
type solidPlan struct {
	Salt             string  `json:"salt" yaml:"salt"`
	Analyte          string  `json:"analyte" yaml:"analyte"`
	SaltMolarMass    float64 `json:"salt_molar_mass" yaml:"salt_molar_mass"`
	AnalyteMolarMass float64 `json:"analyte_molar_mass" yaml:"analyte_molar_mass"`
	Concentration    float64 `json:"concentration" yaml:"concentration"` // mg/L
	Volume           float64 `json:"volume" yaml:"volume"`               // mL
	Mass             float64 `json:"mass" yaml:"mass"`                   // g
}

func newStockSolidCommand() *cobra.Command {
	var (
		salt, analyte  string
		conc, volumeML float64
	)

	cmd := &cobra.Command{
		Use:   "solid",
		Short: "Mass of salt to weigh for a stock solution",
		Long: `Calculate how many grams of a salt to weigh so that the solution contains
the analyte at the requested concentration:

  m = ((Mr(salt) × C × V/1000) / Mr(analyte)) / 1000`,
		Example: `  # 100 mg/L iron in 100 mL from ferrous sulfate heptahydrate
  uvcalc stock solid --salt FeSO4.7H2O --analyte Fe --conc 100 --volume 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			calc := formula.NewCalculator(formula.Standard)

			saltMr, err := calc.MolarMass(salt)
			if err != nil {
				return fmt.Errorf("salt: %w", err)
			}
			analyteMr, err := calc.MolarMass(analyte)
			if err != nil {
				return fmt.Errorf("analyte: %w", err)
			}
			mass, err := spectro.SolidMass(saltMr, analyteMr, conc, volumeML)
			if err != nil {
				return err
			}
			cmdCtx.Logger.Debug("computed solid mass",
				slog.Float64("salt_mr", saltMr),
				slog.Float64("analyte_mr", analyteMr),
				slog.Float64("mass_g", mass))

			plan := solidPlan{
				Salt: salt, Analyte: analyte,
				SaltMolarMass: saltMr, AnalyteMolarMass: analyteMr,
				Concentration: conc, Volume: volumeML, Mass: mass,
			}
			return renderSolidPlan(cmdCtx.Renderer, plan)
		},
	}

	cmd.Flags().StringVar(&salt, "salt", "", "Formula of the salt weighed (required)")
	cmd.Flags().StringVar(&analyte, "analyte", "", "Formula of the analyte (required)")
	cmd.Flags().Float64Var(&conc, "conc", 0, "Analyte concentration in mg/L (required)")
	cmd.Flags().Float64Var(&volumeML, "volume", 0, "Solution volume in mL (required)")
	for _, name := range []string{"salt", "analyte", "conc", "volume"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func renderSolidPlan(r *output.Renderer, p solidPlan) error {
	if written, err := r.Data(p); written || err != nil {
		return err
	}

	r.Header(1, "Stock solution (solid)")
	r.KeyValue("Salt", fmt.Sprintf("%s (%s g/mol)", p.Salt, r.Float(p.SaltMolarMass)))
	r.KeyValue("Analyte", fmt.Sprintf("%s (%s g/mol)", p.Analyte, r.Float(p.AnalyteMolarMass)))
	r.KeyValue("Target", fmt.Sprintf("%s mg/L in %s mL", formatQuantity(p.Concentration), formatQuantity(p.Volume)))
	r.Println()
	r.Success(fmt.Sprintf("Weigh %s g of %s", r.Float(p.Mass), p.Salt))
	return nil
}

// dilutePlan is the output of stock dilute.
type dilutePlan struct {
	StockConcentration  float64 `json:"stock_concentration" yaml:"stock_concentration"`
	TargetConcentration float64 `json:"target_concentration" yaml:"target_concentration"`
	TargetVolume        float64 `json:"target_volume" yaml:"target_volume"`
	StockVolume         float64 `json:"stock_volume" yaml:"stock_volume"`
	SolventVolume       float64 `json:"solvent_volume" yaml:"solvent_volume"`
}

func newStockDiluteCommand() *cobra.Command {
	var c1, c2, v2 float64

	cmd := &cobra.Command{
		Use:   "dilute",
		Short: "Volume of concentrated solution to dilute",
		Long: `Calculate the volume V1 of a concentrated solution C1 needed to make V2 of
concentration C2:

  V1 = C2 × V2 / C1`,
		Example: `  # 100 mL of 10 mg/L from a 1000 mg/L standard
  uvcalc stock dilute --c1 1000 --c2 10 --v2 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer

			v1, err := spectro.StockVolume(c1, c2, v2)
			if err != nil {
				return err
			}
			plan := dilutePlan{
				StockConcentration:  c1,
				TargetConcentration: c2,
				TargetVolume:        v2,
				StockVolume:         v1,
				SolventVolume:       v2 - v1,
			}

			if written, err := r.Data(plan); written || err != nil {
				return err
			}

			r.Header(1, "Stock solution (dilute)")
			r.KeyValue("C1", formatQuantity(c1))
			r.KeyValue("C2", formatQuantity(c2))
			r.KeyValue("V2", formatQuantity(v2)+" mL")
			r.Println()
			if v1 > v2 {
				r.Warning("target concentration is above the stock concentration; V1 exceeds V2")
			}
			r.Success(fmt.Sprintf("Pipette %s mL of stock and make up to %s mL", r.Float(v1), formatQuantity(v2)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&c1, "c1", 0, "Concentration of the concentrated solution (required)")
	cmd.Flags().Float64Var(&c2, "c2", 0, "Target concentration, same unit as --c1 (required)")
	cmd.Flags().Float64Var(&v2, "v2", 0, "Target volume in mL (required)")
	for _, name := range []string{"c1", "c2", "v2"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
