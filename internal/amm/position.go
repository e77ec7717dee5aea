package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"binFlow/internal/binmath"
	"binFlow/internal/custody"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

const (
	CredentialName   = "Bin Position"
	CredentialSymbol = "BINLP"
)

type OpenPositionParams struct {
	Pool       common.Address
	Owner      common.Address
	Mint       common.Address
	LowerBinID int32
	UpperBinID int32
}

// OpenPosition creates an empty position over [LowerBinID, UpperBinID] and
// issues its ownership credential to Owner.
func (e *Engine) OpenPosition(ctx context.Context, params OpenPositionParams) (model.Position, error) {
	var opened model.Position
	err := e.apply(ctx, "open_position", func(txn *ledger.Txn, fx *effects) error {
		pool, err := e.loadPool(ctx, txn, params.Pool)
		if err != nil {
			return err
		}
		if err := validateRange(params.LowerBinID, params.UpperBinID, pool.BinStep, e.params.MaxBinsPerPosition()); err != nil {
			return err
		}

		addr := e.keys.Position(params.Mint)
		if _, err := txn.Position(ctx, addr); err == nil {
			return fmt.Errorf("position %s already exists: %w", addr.Hex(), model.ErrInvalidParameters)
		} else if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		position := txn.CreatePosition(model.Position{
			Address:    addr,
			Pool:       pool.Address,
			Owner:      params.Owner,
			Mint:       params.Mint,
			LowerBinID: params.LowerBinID,
			UpperBinID: params.UpperBinID,
		})
		fx.issue = &custody.Credential{
			Mint:   params.Mint,
			Owner:  params.Owner,
			Name:   CredentialName,
			Symbol: CredentialSymbol,
		}
		opened = *position
		return nil
	})
	if err != nil {
		return model.Position{}, err
	}

	e.logger.Info("position opened",
		zap.String("position", opened.Address.Hex()),
		zap.String("pool", opened.Pool.Hex()),
		zap.String("owner", opened.Owner.Hex()),
		zap.Int32("lower", opened.LowerBinID),
		zap.Int32("upper", opened.UpperBinID),
	)
	return opened, nil
}

// RemoveLiquidityParams withdraws Liquidity from a position. Bins must list
// every bin of the position from lower to upper. Zero liquidity only
// collects fees.
type RemoveLiquidityParams struct {
	Position   common.Address
	Owner      common.Address
	Liquidity  *uint256.Int
	MinAmountA uint64
	MinAmountB uint64
	Bins       []common.Address
}

type RemoveLiquidityResult struct {
	AmountA uint64
	AmountB uint64
	FeesA   uint64
	FeesB   uint64
}

// RemoveLiquidity pays out principal for the withdrawn liquidity plus every
// fee the position has accrued.
func (e *Engine) RemoveLiquidity(ctx context.Context, params RemoveLiquidityParams) (RemoveLiquidityResult, error) {
	var result RemoveLiquidityResult
	err := e.apply(ctx, "remove_liquidity", func(txn *ledger.Txn, fx *effects) error {
		liquidity := params.Liquidity
		if liquidity == nil {
			liquidity = new(uint256.Int)
		}
		position, pool, err := e.loadOwnedPosition(ctx, txn, params.Position, params.Owner)
		if err != nil {
			return err
		}
		if position.Liquidity.Lt(liquidity) {
			return model.ErrInsufficientLiquidity
		}

		settled, err := e.settle(ctx, txn, pool, position, params.Bins)
		if err != nil {
			return err
		}
		principalA, principalB, err := Claimable(*pool, *position, liquidity)
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
		if result.AmountA, err = binmath.ToUint64(totalA); err != nil {
			return err
		}
		if result.AmountB, err = binmath.ToUint64(totalB); err != nil {
			return err
		}
		if result.AmountA < params.MinAmountA || result.AmountB < params.MinAmountB {
			return model.ErrSlippageExceeded
		}
		result.FeesA, result.FeesB = settled.feesA.Uint64(), settled.feesB.Uint64()

		if err := drain(pool, settled.bins, liquidity); err != nil {
			return err
		}
		if pool.ReservesA, err = subReserve(pool.ReservesA, result.AmountA); err != nil {
			return err
		}
		if pool.ReservesB, err = subReserve(pool.ReservesB, result.AmountB); err != nil {
			return err
		}
		left, err := binmath.Sub(&position.Liquidity, liquidity)
		if err != nil {
			return err
		}
		position.Liquidity = *left
		raiseSnapshot(position, settled.maxGrowthA, settled.maxGrowthB)

		fx.transfer(payout(pool, true, params.Owner, result.AmountA))
		fx.transfer(payout(pool, false, params.Owner, result.AmountB))
		return nil
	})
	if err != nil {
		return RemoveLiquidityResult{}, err
	}

	e.logger.Info("liquidity removed",
		zap.String("position", params.Position.Hex()),
		zap.Uint64("amount_a", result.AmountA),
		zap.Uint64("amount_b", result.AmountB),
		zap.Uint64("fees_a", result.FeesA),
		zap.Uint64("fees_b", result.FeesB),
	)
	return result, nil
}

// ClosePosition deletes an empty position and burns its credential.
func (e *Engine) ClosePosition(ctx context.Context, positionAddr, owner common.Address) error {
	err := e.apply(ctx, "close_position", func(txn *ledger.Txn, fx *effects) error {
		position, err := txn.Position(ctx, positionAddr)
		if err != nil {
			return fmt.Errorf("position %s: %w", positionAddr.Hex(), err)
		}
		if position.Owner != owner {
			return model.ErrUnauthorized
		}
		if !position.Liquidity.IsZero() {
			return model.ErrPositionNotEmpty
		}
		txn.DeletePosition(positionAddr)
		fx.burn = &custody.Credential{
			Mint:   position.Mint,
			Owner:  owner,
			Name:   CredentialName,
			Symbol: CredentialSymbol,
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("position closed", zap.String("position", positionAddr.Hex()))
	return nil
}
