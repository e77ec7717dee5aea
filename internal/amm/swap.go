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

// SwapParams describes a swap of AmountIn of InputMint. Bins lists the bins
// to walk in order starting at the pool's active bin: downwards when selling
// token A, upwards when selling token B.
type SwapParams struct {
	Pool             common.Address
	Trader           common.Address
	InputMint        common.Address
	SourceVault      common.Address
	DestinationVault common.Address
	AmountIn         uint64
	MinAmountOut     uint64
	Bins             []common.Address
}

// SwapStep is what one bin contributed to a swap. AmountIn excludes the fee.
type SwapStep struct {
	BinID     int32
	AmountIn  uint64
	FeeAmount uint64
	AmountOut uint64
}

type SwapResult struct {
	AmountOut   uint64
	FeeAmount   uint64
	StartBinID  int32
	ActiveBinID int32
	BinsVisited int
	Steps       []SwapStep
}

// Swap sells AmountIn of one pool token for the other, walking bins until
// the input is used up.
func (e *Engine) Swap(ctx context.Context, params SwapParams) (SwapResult, error) {
	var result SwapResult
	var inputAsset string
	err := e.apply(ctx, "swap", func(txn *ledger.Txn, fx *effects) error {
		if params.AmountIn == 0 {
			return model.ErrZeroAmount
		}
		if len(params.Bins) > e.params.MaxSwapBins() {
			return model.ErrInvalidBinCount
		}
		pool, err := e.loadPool(ctx, txn, params.Pool)
		if err != nil {
			return err
		}
		if !pool.HasMint(params.InputMint) {
			return model.ErrInvalidMint
		}
		aToB := params.InputMint == pool.TokenAMint
		inVault, outVault := pool.TokenAVault, pool.TokenBVault
		if !aToB {
			inVault, outVault = outVault, inVault
		}
		if params.SourceVault != inVault || params.DestinationVault != outVault {
			return model.ErrInvalidVault
		}
		inputAsset = params.InputMint.Hex()

		result, err = e.walk(ctx, txn, pool, aToB, params.AmountIn, params.Bins)
		if err != nil {
			return err
		}
		if result.AmountOut < params.MinAmountOut {
			return fmt.Errorf("out %d below minimum %d: %w", result.AmountOut, params.MinAmountOut, model.ErrSlippageExceeded)
		}

		if aToB {
			if pool.ReservesA, err = addReserve(pool.ReservesA, params.AmountIn); err != nil {
				return err
			}
			if pool.ReservesB, err = subReserve(pool.ReservesB, result.AmountOut); err != nil {
				return err
			}
		} else {
			if pool.ReservesB, err = addReserve(pool.ReservesB, params.AmountIn); err != nil {
				return err
			}
			if pool.ReservesA, err = subReserve(pool.ReservesA, result.AmountOut); err != nil {
				return err
			}
		}
		pool.ActiveBinID = result.ActiveBinID

		fx.transfer(deposit(pool, aToB, params.Trader, params.AmountIn))
		fx.transfer(payout(pool, !aToB, params.Trader, result.AmountOut))
		fx.events = append(fx.events, model.Swapped{
			Pool:        pool.Address,
			Trader:      params.Trader,
			AToB:        aToB,
			AmountIn:    params.AmountIn,
			AmountOut:   result.AmountOut,
			FeeAmount:   result.FeeAmount,
			StartBinID:  result.StartBinID,
			ActiveBinID: result.ActiveBinID,
		})
		return nil
	})
	if err != nil {
		return SwapResult{}, err
	}

	e.metrics.ObserveSwap(params.Pool.Hex(), inputAsset, params.AmountIn, result.FeeAmount, result.BinsVisited, result.ActiveBinID)
	e.logger.Info("swap",
		zap.String("pool", params.Pool.Hex()),
		zap.String("input", inputAsset),
		zap.Uint64("amount_in", params.AmountIn),
		zap.Uint64("amount_out", result.AmountOut),
		zap.Int32("start_bin", result.StartBinID),
		zap.Int32("active_bin", result.ActiveBinID),
		zap.Int("bins", result.BinsVisited),
	)
	return result, nil
}

// walk consumes amountIn across bins. The cursor moves past every visited
// bin, so the returned active bin is the one after the last bin touched.
func (e *Engine) walk(ctx context.Context, txn *ledger.Txn, pool *model.Pool, aToB bool, amountIn uint64, refs []common.Address) (SwapResult, error) {
	step := int64(pool.BinStep)
	if aToB {
		step = -step
	}

	result := SwapResult{StartBinID: pool.ActiveBinID}
	cursor := pool.ActiveBinID
	remaining := uint256.NewInt(amountIn)
	totalOut, totalFee := new(uint256.Int), new(uint256.Int)

	for _, ref := range refs {
		if remaining.IsZero() {
			break
		}
		bin, err := e.loadBin(ctx, txn, pool, cursor, ref)
		if err != nil {
			return SwapResult{}, err
		}
		price, err := binmath.Price(cursor, pool.BinStep)
		if err != nil {
			return SwapResult{}, err
		}
		fill, err := fillBin(bin, price, pool.FeeRate, remaining, aToB)
		if err != nil {
			return SwapResult{}, err
		}
		if !fill.charged.IsZero() {
			if remaining, err = binmath.Sub(remaining, fill.charged); err != nil {
				return SwapResult{}, err
			}
			if totalOut, err = binmath.Add(totalOut, fill.out); err != nil {
				return SwapResult{}, err
			}
			if totalFee, err = binmath.Add(totalFee, fill.fee); err != nil {
				return SwapResult{}, err
			}
			result.Steps = append(result.Steps, SwapStep{
				BinID:     cursor,
				AmountIn:  fill.consumed.Uint64(),
				FeeAmount: fill.fee.Uint64(),
				AmountOut: fill.out.Uint64(),
			})
		}
		result.BinsVisited++
		if cursor, err = binAt(cursor, step, 1); err != nil {
			return SwapResult{}, err
		}
	}
	if !remaining.IsZero() {
		return SwapResult{}, fmt.Errorf("%s of %d unfilled: %w", remaining.Dec(), amountIn, model.ErrInsufficientLiquidityForSwap)
	}

	out, err := binmath.ToUint64(totalOut)
	if err != nil {
		return SwapResult{}, err
	}
	result.AmountOut = out
	result.FeeAmount = totalFee.Uint64()
	result.ActiveBinID = cursor
	return result, nil
}

type binFill struct {
	consumed *uint256.Int
	fee      *uint256.Int
	charged  *uint256.Int
	out      *uint256.Int
}

// fillBin trades as much of remaining as bin can absorb at price. The fee
// is taken before conversion. When the bin cannot cover the whole quote, the
// input actually consumed is derived back from the output (rounded up) and
// grossed up by the fee. The fee is credited to the bin's fee growth for the
// input token.
func fillBin(bin *model.Bin, price *uint256.Int, feeRate uint16, remaining *uint256.Int, aToB bool) (binFill, error) {
	zero := binFill{consumed: new(uint256.Int), fee: new(uint256.Int), charged: new(uint256.Int), out: new(uint256.Int)}
	p := binmath.Precision()

	var capacity *uint256.Int
	if aToB {
		value, err := binmath.MulDiv(&bin.Liquidity, price, p)
		if err != nil {
			return binFill{}, err
		}
		capacity = binmath.Min(value, &bin.AmountB)
	} else {
		capacity = binmath.Min(&bin.Liquidity, &bin.AmountA)
	}
	if capacity.IsZero() {
		return zero, nil
	}

	bpMax := uint256.NewInt(binmath.BasisPointMax)
	// The fee rounds up, so a nonzero input never trades fee-free.
	afterFee, err := binmath.MulDiv(remaining, uint256.NewInt(binmath.BasisPointMax-uint64(feeRate)), bpMax)
	if err != nil {
		return binFill{}, err
	}

	quote, err := convert(afterFee, price, aToB, false)
	if err != nil {
		return binFill{}, err
	}

	var fill binFill
	if quote.Lt(capacity) {
		fill.out = quote
		if fill.consumed, err = convertBack(quote, price, aToB, false); err != nil {
			return binFill{}, err
		}
		fill.charged = remaining.Clone()
	} else {
		fill.out = capacity.Clone()
		if fill.consumed, err = convertBack(capacity, price, aToB, true); err != nil {
			return binFill{}, err
		}
		fill.consumed = binmath.Min(fill.consumed, remaining).Clone()
		gross, err := binmath.MulDivUp(fill.consumed, bpMax, uint256.NewInt(binmath.BasisPointMax-uint64(feeRate)))
		if err != nil {
			return binFill{}, err
		}
		fill.charged = binmath.Min(gross, remaining).Clone()
	}
	fill.fee = new(uint256.Int).Sub(fill.charged, fill.consumed)

	if !fill.fee.IsZero() {
		growth, err := binmath.MulDiv(fill.fee, p, &bin.Liquidity)
		if err != nil {
			return binFill{}, err
		}
		target := &bin.FeeGrowthB
		if aToB {
			target = &bin.FeeGrowthA
		}
		next, err := binmath.Add(target, growth)
		if err != nil {
			return binFill{}, err
		}
		*target = *next
	}

	inSide, outSide := &bin.AmountB, &bin.AmountA
	if aToB {
		inSide, outSide = &bin.AmountA, &bin.AmountB
	}
	in, err := binmath.Add(inSide, fill.consumed)
	if err != nil {
		return binFill{}, err
	}
	left, err := binmath.Sub(outSide, fill.out)
	if err != nil {
		return binFill{}, err
	}
	*inSide, *outSide = *in, *left
	return fill, nil
}

// convert prices an input amount in output units: A to B multiplies by the
// price, B to A divides by it.
func convert(amount, price *uint256.Int, aToB, roundUp bool) (*uint256.Int, error) {
	num, den := price, binmath.Precision()
	if !aToB {
		num, den = den, price
	}
	if roundUp {
		return binmath.MulDivUp(amount, num, den)
	}
	return binmath.MulDiv(amount, num, den)
}

// convertBack is the inverse of convert: the input needed for an output.
func convertBack(out, price *uint256.Int, aToB, roundUp bool) (*uint256.Int, error) {
	return convert(out, price, !aToB, roundUp)
}
