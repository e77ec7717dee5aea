package amm

import (
	"math"

	"binFlow/internal/model"
)

func isBinID(binID int32, binStep uint16) bool {
	return binStep != 0 && int64(binID)%int64(binStep) == 0
}

// binCount returns the number of bins in [lower, upper] for binStep.
func binCount(lower, upper int32, binStep uint16) uint64 {
	if binStep == 0 || upper < lower {
		return 0
	}
	return uint64(int64(upper)-int64(lower))/uint64(binStep) + 1
}

// binAt returns the id i steps after start, walking down when step < 0.
func binAt(start int32, step int64, i int) (int32, error) {
	id := int64(start) + step*int64(i)
	if id > math.MaxInt32 || id < math.MinInt32 {
		return 0, model.ErrMathOverflow
	}
	return int32(id), nil
}

// validateRange checks a position range against the pool's step and the
// configured width limit.
func validateRange(lower, upper int32, binStep uint16, maxBins int) error {
	if lower >= upper {
		return model.ErrInvalidBinRange
	}
	if !isBinID(lower, binStep) || !isBinID(upper, binStep) {
		return model.ErrInvalidBinID
	}
	if binCount(lower, upper, binStep) > uint64(maxBins) {
		return model.ErrRangeTooWide
	}
	return nil
}
