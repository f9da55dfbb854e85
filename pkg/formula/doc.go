// Package formula turns chemical formula text into element counts and molar masses.
//
// A formula is split on hydrate dots (the middle dot U+00B7 or an ASCII period)
// into parts. Each part may carry a leading integer multiplier and is scanned
// left to right with an explicit stack of open parenthesized groups:
//
//	CuSO4·5H2O  -> {Cu:1, S:1, O:9, H:10}
//	Al2(SO4)3   -> {Al:2, S:3, O:12}
//
// Every element symbol must exist in the MassTable the Parser was built with.
// Any unreadable character, unknown symbol or unbalanced parenthesis fails the
// whole formula; no partial composition is ever returned.
//
// # Usage
//
//	mr, err := formula.MolarMass("Ca(OH)2")
//	if errors.Is(err, formula.ErrUnknownElement) {
//		// report the symbol
//	}
//
// The package holds no mutable state. All functions are safe for concurrent use.
package formula
