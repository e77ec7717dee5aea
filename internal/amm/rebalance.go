package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"binFlow/internal/binmath"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

// RebalanceParams moves all liquidity of OldPosition into NewPosition.
// OldBins and NewBins list every bin of each range from lower to upper.
type RebalanceParams struct {
	Owner       common.Address
	OldPosition common.Address
	NewPosition common.Address
	MinSurplusA uint64
	MinSurplusB uint64
	OldBins     []common.Address
	NewBins     []common.Address
}

type RebalanceResult struct {
	LiquidityMoved uint256.Int
	SurplusA       uint64
	SurplusB       uint64
	FeesA          uint64
	FeesB          uint64
}

// Rebalance withdraws the old position at the current active bin, pays its
// fees and any principal the new range does not need, and funds the new
// range with the same liquidity.
func (e *Engine) Rebalance(ctx context.Context, params RebalanceParams) (RebalanceResult, error) {
	var result RebalanceResult
	err := e.apply(ctx, "rebalance", func(txn *ledger.Txn, fx *effects) error {
		if params.OldPosition == params.NewPosition {
			return fmt.Errorf("old and new position are the same: %w", model.ErrInvalidParameters)
		}
		oldPos, pool, err := e.loadOwnedPosition(ctx, txn, params.OldPosition, params.Owner)
		if err != nil {
			return err
		}
		newPos, newPool, err := e.loadOwnedPosition(ctx, txn, params.NewPosition, params.Owner)
		if err != nil {
			return err
		}
		if newPool.Address != pool.Address {
			return fmt.Errorf("position %s is not in pool %s: %w", newPos.Address.Hex(), pool.Address.Hex(), model.ErrInvalidPool)
		}
		if oldPos.Liquidity.IsZero() {
			return model.ErrPositionNotEmpty
		}
		moved := oldPos.Liquidity.Clone()

		settled, err := e.settle(ctx, txn, pool, oldPos, params.OldBins)
		if err != nil {
			return err
		}
		principalA, principalB, err := Claimable(*pool, *oldPos, moved)
		if err != nil {
			return err
		}
		totalA, err := binmath.Add(principalA, settled.feesA)
		if err != nil {
			return err
		}
		totalB, err := binmath.Add(principalB, settled.feesB)
		if err != nil {
			return err
		}
		if err := drain(pool, settled.bins, moved); err != nil {
			return err
		}
		oldPos.Liquidity = uint256.Int{}
		raiseSnapshot(oldPos, settled.maxGrowthA, settled.maxGrowthB)

		requiredA, requiredB, err := RequiredForRange(*pool, newPos.LowerBinID, newPos.UpperBinID, moved)
		if err != nil {
			return err
		}
		if totalA.Lt(requiredA) || totalB.Lt(requiredB) {
			return fmt.Errorf("old range releases %s/%s, new range needs %s/%s: %w",
				totalA.Dec(), totalB.Dec(), requiredA.Dec(), requiredB.Dec(), model.ErrInsufficientLiquidity)
		}
		surplusA := new(uint256.Int).Sub(totalA, requiredA)
		surplusB := new(uint256.Int).Sub(totalB, requiredB)
		if result.SurplusA, err = binmath.ToUint64(surplusA); err != nil {
			return err
		}
		if result.SurplusB, err = binmath.ToUint64(surplusB); err != nil {
			return err
		}
		if result.SurplusA < params.MinSurplusA || result.SurplusB < params.MinSurplusB {
			return model.ErrSlippageExceeded
		}
		if pool.ReservesA, err = subReserve(pool.ReservesA, result.SurplusA); err != nil {
			return err
		}
		if pool.ReservesB, err = subReserve(pool.ReservesB, result.SurplusB); err != nil {
			return err
		}

		count := binCount(newPos.LowerBinID, newPos.UpperBinID, pool.BinStep)
		if uint64(len(params.NewBins)) != count {
			return fmt.Errorf("position %s wants %d bins, got %d: %w", newPos.Address.Hex(), count, len(params.NewBins), model.ErrInvalidBinCount)
		}
		perBin := new(uint256.Int).Div(moved, uint256.NewInt(count))
		maxGrowthA, maxGrowthB := new(uint256.Int), new(uint256.Int)
		for i, ref := range params.NewBins {
			binID, err := binAt(newPos.LowerBinID, int64(pool.BinStep), i)
			if err != nil {
				return err
			}
			bin, err := e.loadBin(ctx, txn, pool, binID, ref)
			if err != nil {
				return err
			}
			a, b, err := RequiredForBin(pool.ActiveBinID, binID, pool.BinStep, perBin)
			if err != nil {
				return err
			}
			if err := creditBin(bin, perBin, a, b); err != nil {
				return err
			}
			maxGrowthA = binmath.Max(maxGrowthA, &bin.FeeGrowthA)
			maxGrowthB = binmath.Max(maxGrowthB, &bin.FeeGrowthB)
		}
		next, err := binmath.Add(&newPos.Liquidity, moved)
		if err != nil {
			return err
		}
		newPos.Liquidity = *next
		raiseSnapshot(newPos, maxGrowthA, maxGrowthB)

		fx.transfer(payout(pool, true, params.Owner, result.SurplusA))
		fx.transfer(payout(pool, false, params.Owner, result.SurplusB))
		fx.events = append(fx.events, model.Rebalanced{
			Pool:           pool.Address,
			Owner:          params.Owner,
			OldPosition:    oldPos.Address,
			NewPosition:    newPos.Address,
			LiquidityMoved: *moved,
			NewLowerBinID:  newPos.LowerBinID,
			NewUpperBinID:  newPos.UpperBinID,
		})
		result.LiquidityMoved = *moved
		result.FeesA, result.FeesB = settled.feesA.Uint64(), settled.feesB.Uint64()
		return nil
	})
	if err != nil {
		return RebalanceResult{}, err
	}

	e.logger.Info("position rebalanced",
		zap.String("old_position", params.OldPosition.Hex()),
		zap.String("new_position", params.NewPosition.Hex()),
		zap.String("liquidity", result.LiquidityMoved.Dec()),
		zap.Uint64("surplus_a", result.SurplusA),
		zap.Uint64("surplus_b", result.SurplusB),
	)
	return result, nil
}
