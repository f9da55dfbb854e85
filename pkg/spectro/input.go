package spectro

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseList parses comma-separated numbers such as "0.2, 0.4, 0.6".
// Blank items are skipped.
func ParseList(s string) ([]float64, error) {
	var out []float64
	for i, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d %q is not a number", ErrInvalidInput, i+1, item)
		}
		out = append(out, v)
	}
	return out, nil
}

func requirePositive(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be greater than 0, got %v", ErrInvalidInput, name, v)
	}
	return nil
}
