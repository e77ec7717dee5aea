package amm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"binFlow/internal/events"
	"binFlow/internal/model"
)

func (h *harness) rebalance(from, to model.Position, minA, minB uint64) (RebalanceResult, error) {
	h.t.Helper()
	pool, err := h.engine.Pool(h.ctx, from.Pool)
	require.NoError(h.t, err)
	step := int32(pool.BinStep)
	oldCount := int(binCount(from.LowerBinID, from.UpperBinID, pool.BinStep))
	newCount := int(binCount(to.LowerBinID, to.UpperBinID, pool.BinStep))
	return h.engine.Rebalance(h.ctx, RebalanceParams{
		Owner:       alice,
		OldPosition: from.Address,
		NewPosition: to.Address,
		MinSurplusA: minA,
		MinSurplusB: minB,
		OldBins:     h.keys.BinRange(pool.Address, from.LowerBinID, step, oldCount),
		NewBins:     h.keys.BinRange(pool.Address, to.LowerBinID, step, newCount),
	})
}

func TestRebalancePaysExactSurplus(t *testing.T) {
	h := newHarness(t)
	pool, position := h.seed()
	_, err := h.sell(pool, true, 1_000_000, 3)
	require.NoError(t, err)
	pool, position = h.reload(pool, position)
	target := h.openPosition(pool, altMint, -20, 20)
	aliceA := h.book.Balance(alice, mintA)

	result, err := h.rebalance(position, target, 3_000, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(5*perBin), result.LiquidityMoved.Uint64())
	require.Equal(t, uint64(3_000), result.SurplusA)
	require.Zero(t, result.SurplusB)
	require.Equal(t, uint64(3_000), result.FeesA)
	require.Equal(t, aliceA+3_000, h.book.Balance(alice, mintA))

	after, old := h.reload(pool, position)
	require.True(t, old.Liquidity.IsZero())
	require.Equal(t, uint64(3_000_000_000), old.FeeGrowthSnapshotA.Uint64())
	require.Equal(t, pool.ReservesA-3_000, after.ReservesA)
	require.Equal(t, pool.ReservesB, after.ReservesB)

	_, moved := h.reload(pool, target)
	require.Equal(t, uint64(5*perBin), moved.Liquidity.Uint64())
	require.Equal(t, uint64(3_000_000_000), moved.FeeGrowthSnapshotA.Uint64())
	for id := int32(-20); id <= 20; id += 10 {
		bin := h.bin(pool, id)
		require.Equal(t, uint64(perBin), bin.Liquidity.Uint64(), "bin %d", id)
	}

	records := h.sink.records()
	require.Len(t, records, 2)
	decoder, err := events.NewDecoder()
	require.NoError(t, err)
	typed, err := decoder.Decode(records[1])
	require.NoError(t, err)
	data, ok := typed.Decoded.(model.RebalanceEventData)
	require.True(t, ok)
	require.Equal(t, pool.Address.Hex(), data.Pool)
	require.Equal(t, position.Address.Hex(), data.OldPosition)
	require.Equal(t, target.Address.Hex(), data.NewPosition)
	require.Equal(t, "5000000", data.LiquidityMoved)
	require.Equal(t, int32(-20), data.NewLowerBinID)
	require.Equal(t, int32(20), data.NewUpperBinID)

	// Fees are settled, so the emptied position can be closed.
	require.NoError(t, h.engine.ClosePosition(h.ctx, position.Address, alice))
}

func TestRebalanceSlippageLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	pool, position := h.seed()
	_, err := h.sell(pool, true, 1_000_000, 3)
	require.NoError(t, err)
	pool, position = h.reload(pool, position)
	target := h.openPosition(pool, altMint, -20, 20)
	aliceA := h.book.Balance(alice, mintA)
	binBefore := h.bin(pool, 0)

	_, err = h.rebalance(position, target, 3_001, 0)
	require.ErrorIs(t, err, model.ErrSlippageExceeded)

	after, old := h.reload(pool, position)
	require.Equal(t, pool, after)
	require.Equal(t, position, old)
	_, untouched := h.reload(pool, target)
	require.Equal(t, target, untouched)
	require.Equal(t, binBefore, h.bin(pool, 0))
	require.Equal(t, aliceA, h.book.Balance(alice, mintA))
	require.Len(t, h.sink.records(), 1)
}

func TestRebalanceValidation(t *testing.T) {
	h := newHarness(t)
	pool, position := h.seed()
	narrow := h.openPosition(pool, altMint, 0, 20)

	_, err := h.rebalance(position, position, 0, 0)
	require.ErrorIs(t, err, model.ErrInvalidParameters)

	_, err = h.rebalance(narrow, position, 0, 0)
	require.ErrorIs(t, err, model.ErrPositionNotEmpty)

	// Three bins at 5,000,000 / 3 each need more token A than the old range
	// releases.
	_, err = h.rebalance(position, narrow, 0, 0)
	require.ErrorIs(t, err, model.ErrInsufficientLiquidity)

	_, err = h.engine.Rebalance(h.ctx, RebalanceParams{
		Owner:       bob,
		OldPosition: position.Address,
		NewPosition: narrow.Address,
	})
	require.ErrorIs(t, err, model.ErrUnauthorized)

	otherMint := common.HexToAddress("0x0000000000000000000000000000000000002001")
	other, err := h.engine.CreatePool(h.ctx, CreatePoolParams{
		TokenAMint: mintA, TokenBMint: otherMint, BinStep: 10, FeeRate: 30,
	})
	require.NoError(t, err)
	elsewhere := h.openPosition(other, common.HexToAddress("0x0000000000000000000000000000000000001003"), -20, 20)
	_, err = h.rebalance(position, elsewhere, 0, 0)
	require.ErrorIs(t, err, model.ErrInvalidPool)

	_, position = h.reload(pool, position)
	require.Equal(t, uint64(5*perBin), position.Liquidity.Uint64())
}
