package formula

import "math"

// Precision is the number of decimals molar masses are rounded to.
const Precision = 4

// Calculator computes molar masses against one MassTable.
type Calculator struct {
	parser *Parser
}

// NewCalculator returns a Calculator for table. A nil table means Standard.
func NewCalculator(table *MassTable) *Calculator {
	return &Calculator{parser: NewParser(table)}
}

var defaultCalculator = NewCalculator(Standard)

// MolarMass returns the molar mass of formula in g/mol using the Standard table,
// rounded to Precision decimals.
func MolarMass(formula string) (float64, error) {
	return defaultCalculator.MolarMass(formula)
}

// MolarMassOrZero returns 0 for an empty or invalid formula.
// Use MolarMass when the failure reason matters.
func MolarMassOrZero(formula string) float64 {
	m, err := MolarMass(formula)
	if err != nil {
		return 0
	}
	return m
}

// MolarMass parses formula and sums atomic mass times count.
func (c *Calculator) MolarMass(formula string) (float64, error) {
	comp, err := c.parser.Parse(formula)
	if err != nil {
		return 0, err
	}
	return c.MassOf(comp), nil
}

// MassOf sums the composition against the calculator's table, rounded to
// Precision decimals. Symbols missing from the table contribute nothing;
// compositions produced by Parse never contain such symbols.
func (c *Calculator) MassOf(comp Composition) float64 {
	total := 0.0
	for _, sym := range comp.Symbols() {
		m, _ := c.parser.table.Mass(sym)
		total += m * float64(comp[sym])
	}
	return Round(total, Precision)
}

// Contribution is one element's share of a molar mass.
type Contribution struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	Name       string  `json:"name" yaml:"name"`
	Count      int     `json:"count" yaml:"count"`
	AtomicMass float64 `json:"atomic_mass" yaml:"atomic_mass"`
	Subtotal   float64 `json:"subtotal" yaml:"subtotal"`
	Percent    float64 `json:"percent" yaml:"percent"` // mass fraction, 0-100
}

// Result is a parsed formula together with its molar mass.
type Result struct {
	Formula       string         `json:"formula" yaml:"formula"`
	Hill          string         `json:"hill" yaml:"hill"`
	Composition   Composition    `json:"composition" yaml:"composition"`
	MolarMass     float64        `json:"molar_mass" yaml:"molar_mass"`
	Contributions []Contribution `json:"contributions" yaml:"contributions"`
}

// Breakdown parses formula and reports per-element contributions in Hill order.
func (c *Calculator) Breakdown(formula string) (*Result, error) {
	comp, err := c.parser.Parse(formula)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Formula:     formula,
		Hill:        comp.String(),
		Composition: comp,
		MolarMass:   c.MassOf(comp),
	}

	raw := 0.0
	for _, sym := range comp.Symbols() {
		el, _ := c.parser.table.Lookup(sym)
		sub := el.Mass * float64(comp[sym])
		raw += sub
		res.Contributions = append(res.Contributions, Contribution{
			Symbol:     sym,
			Name:       el.Name,
			Count:      comp[sym],
			AtomicMass: el.Mass,
			Subtotal:   sub,
		})
	}
	for i := range res.Contributions {
		res.Contributions[i].Percent = Round(res.Contributions[i].Subtotal/raw*100, 2)
		res.Contributions[i].Subtotal = Round(res.Contributions[i].Subtotal, Precision)
	}
	return res, nil
}

// Breakdown uses the Standard table.
func Breakdown(formula string) (*Result, error) {
	return defaultCalculator.Breakdown(formula)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
