package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"binFlow/internal/binmath"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

// AccruedFees returns the fees position has earned in bin since its last
// snapshot, on the position's per-bin share of liquidity. A snapshot above
// the bin's growth yields zero.
//
// Growth is per unit of the bin's liquidity and the position holds only
// liquidity/binCount of each bin, so using the full position liquidity
// would pay the same fees binCount times over.
func AccruedFees(position model.Position, bin model.Bin, binCount uint64) (*uint256.Int, *uint256.Int, error) {
	if binCount == 0 {
		return nil, nil, model.ErrInvalidBinCount
	}
	share := new(uint256.Int).Div(&position.Liquidity, uint256.NewInt(binCount))
	feeA, err := feeOn(&bin.FeeGrowthA, &position.FeeGrowthSnapshotA, share)
	if err != nil {
		return nil, nil, err
	}
	feeB, err := feeOn(&bin.FeeGrowthB, &position.FeeGrowthSnapshotB, share)
	if err != nil {
		return nil, nil, err
	}
	return feeA, feeB, nil
}

func feeOn(growth, snapshot, share *uint256.Int) (*uint256.Int, error) {
	if !snapshot.Lt(growth) {
		return new(uint256.Int), nil
	}
	delta := new(uint256.Int).Sub(growth, snapshot)
	return binmath.MulDiv(delta, share, binmath.Precision())
}

func raiseSnapshot(position *model.Position, growthA, growthB *uint256.Int) {
	position.FeeGrowthSnapshotA = *binmath.Max(&position.FeeGrowthSnapshotA, growthA).Clone()
	position.FeeGrowthSnapshotB = *binmath.Max(&position.FeeGrowthSnapshotB, growthB).Clone()
}

// settlement is the result of walking every bin of a position.
type settlement struct {
	bins       []*model.Bin
	feesA      *uint256.Int
	feesB      *uint256.Int
	maxGrowthA *uint256.Int
	maxGrowthB *uint256.Int
}

// settle loads the full bin range of position from refs, which must list
// every bin from lower to upper in order, and totals the fees owed.
func (e *Engine) settle(ctx context.Context, txn *ledger.Txn, pool *model.Pool, position *model.Position, refs []common.Address) (settlement, error) {
	count := binCount(position.LowerBinID, position.UpperBinID, pool.BinStep)
	if uint64(len(refs)) != count {
		return settlement{}, fmt.Errorf("position %s wants %d bins, got %d: %w", position.Address.Hex(), count, len(refs), model.ErrInvalidBinCount)
	}

	out := settlement{
		bins:       make([]*model.Bin, 0, len(refs)),
		feesA:      new(uint256.Int),
		feesB:      new(uint256.Int),
		maxGrowthA: new(uint256.Int),
		maxGrowthB: new(uint256.Int),
	}
	for i, ref := range refs {
		binID, err := binAt(position.LowerBinID, int64(pool.BinStep), i)
		if err != nil {
			return settlement{}, err
		}
		bin, err := e.loadBin(ctx, txn, pool, binID, ref)
		if err != nil {
			return settlement{}, err
		}
		feeA, feeB, err := AccruedFees(*position, *bin, count)
		if err != nil {
			return settlement{}, err
		}
		if out.feesA, err = binmath.Add(out.feesA, feeA); err != nil {
			return settlement{}, err
		}
		if out.feesB, err = binmath.Add(out.feesB, feeB); err != nil {
			return settlement{}, err
		}
		out.maxGrowthA = binmath.Max(out.maxGrowthA, bin.FeeGrowthA.Clone())
		out.maxGrowthB = binmath.Max(out.maxGrowthB, bin.FeeGrowthB.Clone())
		out.bins = append(out.bins, bin)
	}
	return out, nil
}

// drain removes liquidity/count from each settled bin together with its
// backing at the current active bin.
func drain(pool *model.Pool, bins []*model.Bin, liquidity *uint256.Int) error {
	if len(bins) == 0 || liquidity.IsZero() {
		return nil
	}
	perBin := new(uint256.Int).Div(liquidity, uint256.NewInt(uint64(len(bins))))
	for _, bin := range bins {
		a, b, err := RequiredForBin(pool.ActiveBinID, bin.BinID, pool.BinStep, perBin)
		if err != nil {
			return err
		}
		if err := debitBin(bin, perBin, a, b); err != nil {
			return err
		}
	}
	return nil
}
