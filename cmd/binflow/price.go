package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"binFlow/internal/binmath"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	binStep, _ := cmd.Flags().GetUint16("bin-step")
	from, _ := cmd.Flags().GetInt32("from")
	to, _ := cmd.Flags().GetInt32("to")
	return writePrices(cmd.OutOrStdout(), binStep, from, to)
}

// writePrices prints one "bin_id<TAB>price" line per bin in [from, to].
// Bounds are rounded inward to multiples of binStep.
func writePrices(w io.Writer, binStep uint16, from, to int32) error {
	if binStep == 0 {
		return fmt.Errorf("bin step must be positive")
	}
	if from > to {
		return fmt.Errorf("from %d is after to %d", from, to)
	}

	step := int64(binStep)
	first := ceilMultiple(int64(from), step)
	for id := first; id <= int64(to); id += step {
		price, err := binmath.Price(int32(id), binStep)
		if err != nil {
			return fmt.Errorf("price of bin %d: %w", id, err)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\n", id, price.Dec()); err != nil {
			return err
		}
	}
	return nil
}

func ceilMultiple(v, step int64) int64 {
	r := v % step
	if r == 0 {
		return v
	}
	if r < 0 {
		return v - r
	}
	return v + step - r
}
