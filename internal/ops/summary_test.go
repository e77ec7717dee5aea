package ops

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorAddSwap(t *testing.T) {
	acc := NewAccumulator(common.HexToAddress("0x01"), 6, 9)
	acc.AddSwap(true, 1_000_000, 3_000)
	acc.AddSwap(false, 500, 1)
	acc.AddSwap(true, 10, 0)

	require.Equal(t, uint64(3), acc.SwapCount)
	require.Equal(t, "1000010", acc.VolumeA.String())
	require.Equal(t, "500", acc.VolumeB.String())
	require.Equal(t, "3000", acc.FeeA.String())
	require.Equal(t, "1", acc.FeeB.String())
}

func TestFormatTokenAmount(t *testing.T) {
	require.Equal(t, "0", formatTokenAmount(nil, 6))
	require.Equal(t, "1234", formatTokenAmount(big.NewInt(1234), 0))
	require.Equal(t, "0.001234", formatTokenAmount(big.NewInt(1234), 6))
	require.Equal(t, "-1.500000", formatTokenAmount(big.NewInt(-1_500_000), 6))
}
