package ops

import "fmt"

// BinRange is an inclusive range of bin ids on a bin-step grid.
type BinRange struct {
	From int32
	To   int32
}

// Count returns the number of bins in the range for binStep.
func (r BinRange) Count(binStep uint16) int {
	return int((int64(r.To)-int64(r.From))/int64(binStep)) + 1
}

// SplitRange splits [from, to] into consecutive chunks of at most chunkBins
// bins each.
func SplitRange(from, to int32, binStep uint16, chunkBins int) ([]BinRange, error) {
	if chunkBins <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if binStep == 0 {
		return nil, fmt.Errorf("bin step must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to bin must be >= from bin")
	}

	span := int64(binStep) * int64(chunkBins-1)
	ranges := make([]BinRange, 0)
	start := int64(from)
	for start <= int64(to) {
		end := start + span
		if end > int64(to) {
			end = int64(to)
		}
		ranges = append(ranges, BinRange{From: int32(start), To: int32(end)})
		start = end + int64(binStep)
	}

	return ranges, nil
}
