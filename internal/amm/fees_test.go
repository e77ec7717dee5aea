package amm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"binFlow/internal/model"
)

func TestAccruedFeesUsesPerBinShare(t *testing.T) {
	var position model.Position
	position.Liquidity.SetUint64(5_000_000)
	var bin model.Bin
	bin.FeeGrowthA.SetUint64(3_000_000_000)
	bin.FeeGrowthB.SetUint64(1_000_000_000)
	position.FeeGrowthSnapshotB.SetUint64(2_000_000_000)

	feeA, feeB, err := AccruedFees(position, bin, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(3_000), feeA.Uint64())
	require.True(t, feeB.IsZero())

	_, _, err = AccruedFees(position, bin, 0)
	require.ErrorIs(t, err, model.ErrInvalidBinCount)
}

func TestRaiseSnapshotNeverLowers(t *testing.T) {
	var position model.Position
	position.FeeGrowthSnapshotA.SetUint64(10)
	raiseSnapshot(&position, uint256.NewInt(5), uint256.NewInt(7))
	require.Equal(t, uint64(10), position.FeeGrowthSnapshotA.Uint64())
	require.Equal(t, uint64(7), position.FeeGrowthSnapshotB.Uint64())
}

func TestCollectFeesWithZeroLiquidity(t *testing.T) {
	h := newHarness(t)
	pool, position := h.seed()
	_, err := h.sell(pool, true, 1_000_000, 3)
	require.NoError(t, err)
	refs := h.keys.BinRange(pool.Address, -20, 10, 5)
	before := h.book.Balance(alice, mintA)

	result, err := h.engine.RemoveLiquidity(h.ctx, RemoveLiquidityParams{
		Position: position.Address, Owner: alice, Bins: refs,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3_000), result.AmountA)
	require.Equal(t, uint64(3_000), result.FeesA)
	require.Zero(t, result.AmountB)
	require.Equal(t, before+3_000, h.book.Balance(alice, mintA))

	again, err := h.engine.RemoveLiquidity(h.ctx, RemoveLiquidityParams{
		Position: position.Address, Owner: alice, Bins: refs,
	})
	require.NoError(t, err)
	require.Zero(t, again.AmountA)

	_, position = h.reload(pool, position)
	require.Equal(t, uint64(5*perBin), position.Liquidity.Uint64())
}

func TestRequiredForBinSides(t *testing.T) {
	l := uint256.NewInt(1_000_000)

	a, b, err := RequiredForBin(0, 10, 10, l)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), a.Uint64())
	require.True(t, b.IsZero())

	a, b, err = RequiredForBin(0, 0, 10, l)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), a.Uint64())
	require.Equal(t, uint64(1_000_000), b.Uint64())

	a, b, err = RequiredForBin(0, -10, 10, l)
	require.NoError(t, err)
	require.True(t, a.IsZero())
	require.Less(t, b.Uint64(), uint64(1_000_000))
}
