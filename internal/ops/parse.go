package ops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"binFlow/internal/model"
)

// ParseAddress converts a required hex address field.
func ParseAddress(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s is required: %w", field, model.ErrInvalidParameters)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address %q: %w", field, input, model.ErrInvalidParameters)
	}
	return common.HexToAddress(input), nil
}

// parseAmount reads a decimal token amount. Empty means zero.
func parseAmount(field, input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, input, model.ErrInvalidParameters)
	}
	return v, nil
}

// parseLiquidity reads a decimal liquidity amount of up to 128 bits.
func parseLiquidity(field, input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(input)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, input, model.ErrInvalidParameters)
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("%s %q exceeds 128 bits: %w", field, input, model.ErrMathOverflow)
	}
	return v, nil
}
