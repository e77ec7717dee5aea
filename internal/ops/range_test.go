package ops

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(-20, 20, 10, 2)
	require.NoError(t, err)
	require.Equal(t, []BinRange{
		{From: -20, To: -10},
		{From: 0, To: 10},
		{From: 20, To: 20},
	}, got)

	counts := 0
	for _, r := range got {
		counts += r.Count(10)
	}
	require.Equal(t, 5, counts)
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 5, 64)
	require.NoError(t, err)
	require.Equal(t, []BinRange{{From: 5, To: 5}}, got)
}

func TestSplitRangeNearLimits(t *testing.T) {
	got, err := SplitRange(2147483640, 2147483647, 1, 5)
	require.NoError(t, err)
	require.Equal(t, []BinRange{
		{From: 2147483640, To: 2147483644},
		{From: 2147483645, To: 2147483647},
	}, got)
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1, 1)
	require.Error(t, err)
	_, err = SplitRange(1, 10, 1, 0)
	require.Error(t, err)
	_, err = SplitRange(1, 10, 0, 1)
	require.Error(t, err)
}
