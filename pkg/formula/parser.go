package formula

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// HydrateDot is the middle dot used in hydrate notation ("CuSO4·5H2O").
// It is interchangeable with an ASCII period.
const HydrateDot = "·"

// maxCount bounds any single or accumulated atom count.
const maxCount = 1_000_000_000

// Parser converts formula text into a Composition using a fixed MassTable.
type Parser struct {
	table *MassTable
}

// NewParser returns a Parser validating symbols against table.
// A nil table means Standard.
func NewParser(table *MassTable) *Parser {
	if table == nil {
		table = Standard
	}
	return &Parser{table: table}
}

// Table returns the mass table the parser validates against.
func (p *Parser) Table() *MassTable {
	return p.table
}

var defaultParser = NewParser(Standard)

// Parse parses formula against the Standard table.
func Parse(formula string) (Composition, error) {
	return defaultParser.Parse(formula)
}

// part is one hydrate-separated segment and its byte offset in the input.
type part struct {
	text   string
	offset int
}

// splitParts splits on '.' and the hydrate dot, keeping offsets into s.
func splitParts(s string) []part {
	var parts []part
	start := 0
	for i := 0; i < len(s); {
		switch {
		case s[i] == '.':
			parts = append(parts, part{text: s[start:i], offset: start})
			i++
			start = i
		case strings.HasPrefix(s[i:], HydrateDot):
			parts = append(parts, part{text: s[start:i], offset: start})
			i += len(HydrateDot)
			start = i
		default:
			i++
		}
	}
	return append(parts, part{text: s[start:], offset: start})
}

// Parse returns the element counts of formula. Any failure rejects the whole
// formula; the returned error is a *ParseError.
func (p *Parser) Parse(formula string) (Composition, error) {
	if formula == "" {
		return nil, &ParseError{Kind: ErrEmptyFormula, Formula: formula, Offset: -1}
	}

	total := make(Composition)
	for _, pt := range splitParts(formula) {
		text, offset := pt.text, pt.offset
		mult := 1
		if n, rest, ok := leadingMultiplier(text); ok {
			if n > maxCount {
				return nil, p.errorf(ErrUnrecognizedToken, formula, offset, text[:len(text)-len(rest)], "multiplier out of range")
			}
			mult = n
			offset += len(text) - len(rest)
			text = rest
		}
		if err := p.scan(formula, text, offset, mult, total); err != nil {
			return nil, err
		}
	}

	if len(total) == 0 {
		return nil, &ParseError{Kind: ErrEmptyFormula, Formula: formula, Offset: -1, Message: "no atoms"}
	}
	return total, nil
}

// leadingMultiplier matches one or more digits followed by an uppercase
// letter or '(' and returns the digit value and the remainder.
func leadingMultiplier(s string) (int, string, bool) {
	end := digitRun(s, 0)
	if end == 0 || end == len(s) {
		return 0, s, false
	}
	if c := s[end]; !isUpper(c) && c != '(' {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		n = maxCount + 1
	}
	return n, s[end:], true
}

// frame is an open parenthesized group.
type frame struct {
	counts     Composition
	multiplier int // part multiplier in effect when the group opened
	open       int // offset of '(' in the formula
}

// scan walks one part left to right, merging into total.
func (p *Parser) scan(formula, s string, base, mult int, total Composition) error {
	var stack []frame

	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '(':
			stack = append(stack, frame{counts: make(Composition), multiplier: mult, open: base + i})
			i++

		case c == ')':
			if len(stack) == 0 {
				return p.errorf(ErrMalformedNesting, formula, base+i, ")", "no matching '('")
			}
			closeAt := i
			i++
			end := digitRun(s, i)
			group, ok := parseCount(s[i:end])
			if !ok {
				return p.errorf(ErrUnrecognizedToken, formula, base+i, s[i:end], "group count out of range")
			}
			i = end

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for el, n := range top.counts {
				var scaled int
				var ok bool
				if len(stack) > 0 {
					scaled, ok = scale(n, group)
				} else {
					scaled, ok = scale(n, group, mult)
				}
				if !ok {
					return p.errorf(ErrUnrecognizedToken, formula, base+closeAt, ")", "atom count out of range")
				}
				if len(stack) > 0 {
					stack[len(stack)-1].counts.add(el, scaled)
				} else {
					total.add(el, scaled)
				}
				if total[el] > maxCount {
					return p.errorf(ErrUnrecognizedToken, formula, base+closeAt, ")", "atom count out of range")
				}
			}

		default:
			sym, digits, next, ok := scanElement(s, i)
			if !ok {
				r, _ := utf8.DecodeRuneInString(s[i:])
				return p.errorf(ErrUnrecognizedToken, formula, base+i, string(r), "")
			}
			if !p.table.Has(sym) {
				return p.errorf(ErrUnknownElement, formula, base+i, sym, "")
			}
			n, ok := parseCount(digits)
			if !ok {
				return p.errorf(ErrUnrecognizedToken, formula, base+i, s[i:next], "atom count out of range")
			}
			if len(stack) > 0 {
				stack[len(stack)-1].counts.add(sym, n)
			} else {
				scaled, ok := scale(n, mult)
				if !ok || total[sym]+scaled > maxCount {
					return p.errorf(ErrUnrecognizedToken, formula, base+i, s[i:next], "atom count out of range")
				}
				total.add(sym, scaled)
			}
			i = next
		}
	}

	if len(stack) > 0 {
		return p.errorf(ErrMalformedNesting, formula, stack[len(stack)-1].open, "(", "'(' is never closed")
	}
	return nil
}

// scanElement matches an uppercase letter, an optional lowercase letter and an
// optional digit run at s[i:].
func scanElement(s string, i int) (symbol, digits string, next int, ok bool) {
	if i >= len(s) || !isUpper(s[i]) {
		return "", "", i, false
	}
	j := i + 1
	if j < len(s) && isLower(s[j]) {
		j++
	}
	end := digitRun(s, j)
	return s[i:j], s[j:end], end, true
}

// parseCount reads a digit run, defaulting to 1 when empty.
func parseCount(digits string) (int, bool) {
	if digits == "" {
		return 1, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxCount {
		return 0, false
	}
	return n, true
}

// scale multiplies factors, failing past maxCount.
func scale(factors ...int) (int, bool) {
	v := 1
	for _, f := range factors {
		if f == 0 {
			return 0, true
		}
		if v > maxCount/f {
			return 0, false
		}
		v *= f
	}
	return v, true
}

// digitRun returns the end of the ASCII digit run starting at i.
func digitRun(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func (p *Parser) errorf(kind error, formula string, offset int, text, msg string) error {
	return &ParseError{Kind: kind, Formula: formula, Offset: offset, Text: text, Message: msg}
}

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }
