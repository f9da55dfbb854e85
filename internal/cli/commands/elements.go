package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/uvcalc/internal/cli/output"
	"github.com/leapstack-labs/uvcalc/pkg/formula"
)

// NewElementsCommand creates the elements command.
func NewElementsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elements [symbol...]",
		Short: "Show the atomic mass table",
		Long: `Show the atomic masses used for molar mass calculations.

Without arguments every element is listed in periodic order. Symbols are
case-sensitive, as in formulas.`,
		Example: `  uvcalc elements
  uvcalc elements Fe Cu Mn
  uvcalc elements -o json`,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return formula.Standard.Symbols(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runElements(cmd, args)
		},
	}
	return cmd
}

func runElements(cmd *cobra.Command, symbols []string) error {
	r := NewCommandContext(cmd).Renderer

	elements := formula.Standard.Elements()
	if len(symbols) > 0 {
		elements = elements[:0:0]
		for _, sym := range symbols {
			el, ok := formula.Standard.Lookup(sym)
			if !ok {
				return fmt.Errorf("%w %q%s", formula.ErrUnknownElement, sym, symbolHint(sym))
			}
			elements = append(elements, el)
		}
	}

	if written, err := r.Data(elements); written || err != nil {
		return err
	}
	renderElements(r, elements)
	return nil
}

func renderElements(r *output.Renderer, elements []formula.Element) {
	r.Header(1, fmt.Sprintf("Elements (%d)", len(elements)))
	if r.EffectiveMode() != output.ModeMarkdown {
		r.Println()
	}

	rows := make([][]string, 0, len(elements))
	for _, el := range elements {
		rows = append(rows, []string{strconv.Itoa(el.Number), el.Symbol, el.Name, strconv.FormatFloat(el.Mass, 'f', -1, 64)})
	}
	r.Table([]string{"Z", "Symbol", "Name", "Atomic mass"}, rows)
}

// symbolHint suggests the correctly cased symbol, e.g. "CL" -> "Cl".
func symbolHint(sym string) string {
	if sym == "" {
		return ""
	}
	fixed := strings.ToUpper(sym[:1]) + strings.ToLower(sym[1:])
	if fixed != sym && formula.Standard.Has(fixed) {
		return fmt.Sprintf(" (did you mean %q?)", fixed)
	}
	return ""
}
