package postgres

import (
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"binFlow/internal/model"
)

// parseU128 reads a NUMERIC column rendered as text. NUMERIC(39,0) holds
// values past 2^128, so the width is checked after parsing.
func parseU128(value string, target *uint256.Int) error {
	if err := target.SetFromDecimal(value); err != nil {
		return fmt.Errorf("parse %q: %w", value, err)
	}
	if target.BitLen() > 128 {
		return fmt.Errorf("parse %q: %w", value, model.ErrMathOverflow)
	}
	return nil
}

func parseU128s(values []string, targets ...*uint256.Int) error {
	if len(values) != len(targets) {
		return fmt.Errorf("got %d values for %d columns", len(values), len(targets))
	}
	for i, target := range targets {
		if err := parseU128(values[i], target); err != nil {
			return err
		}
	}
	return nil
}

func parseReserve(value string) (uint64, error) {
	reserve, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", value, err)
	}
	return reserve, nil
}
