package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

// formatQuantity prints a user-supplied number without padding zeros.
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseListFlag parses a comma-separated list flag such as --abs "0.21, 0.42".
func parseListFlag(name, value string) ([]float64, error) {
	xs, err := spectro.ParseList(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("--%s: %w: no values given", name, spectro.ErrInvalidInput)
	}
	return xs, nil
}
