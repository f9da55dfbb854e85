package formula

import (
	"sort"
	"strconv"
	"strings"
)

// Composition maps element symbols to atom counts for one formula unit.
// Every present symbol has a count of at least 1.
type Composition map[string]int

// add merges n atoms of symbol. Zero counts are never stored.
func (c Composition) add(symbol string, n int) {
	if n <= 0 {
		return
	}
	c[symbol] += n
}

// Atoms returns the total number of atoms.
func (c Composition) Atoms() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Symbols returns the symbols in Hill order: with carbon present, C then H then
// the rest alphabetically; otherwise all alphabetically.
func (c Composition) Symbols() []string {
	syms := make([]string, 0, len(c))
	for s := range c {
		syms = append(syms, s)
	}
	_, hasC := c["C"]
	rank := func(s string) int {
		if !hasC {
			return 2
		}
		switch s {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}
	sort.Slice(syms, func(i, j int) bool {
		ri, rj := rank(syms[i]), rank(syms[j])
		if ri != rj {
			return ri < rj
		}
		return syms[i] < syms[j]
	})
	return syms
}

// String renders the composition as a Hill formula, e.g. "CuH10O9S".
func (c Composition) String() string {
	var b strings.Builder
	for _, s := range c.Symbols() {
		b.WriteString(s)
		if n := c[s]; n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}
