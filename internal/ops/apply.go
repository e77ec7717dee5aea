package ops

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/amm"
	"binFlow/internal/model"
)

const (
	OpFund            = "fund"
	OpCreatePool      = "create_pool"
	OpInitBin         = "init_bin"
	OpOpenPosition    = "open_position"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
	OpRebalance       = "rebalance"
	OpClosePosition   = "close_position"
	OpPrice           = "price"
)

func (r *Runner) apply(ctx context.Context, op model.Operation) (model.OperationResult, error) {
	result := model.OperationResult{Seq: op.Seq, Op: op.Op}
	var err error
	switch op.Op {
	case OpFund:
		err = r.fund(op)
	case OpCreatePool:
		err = r.createPool(ctx, op, &result)
	case OpInitBin:
		err = r.initBin(ctx, op, &result)
	case OpOpenPosition:
		err = r.openPosition(ctx, op, &result)
	case OpAddLiquidity:
		err = r.addLiquidity(ctx, op, &result)
	case OpRemoveLiquidity:
		err = r.removeLiquidity(ctx, op, &result)
	case OpSwap:
		err = r.swap(ctx, op, &result)
	case OpRebalance:
		err = r.rebalance(ctx, op, &result)
	case OpClosePosition:
		err = r.closePosition(ctx, op, &result)
	case OpPrice:
		err = r.price(ctx, op, &result)
	default:
		err = fmt.Errorf("unknown op %q: %w", op.Op, model.ErrInvalidParameters)
	}
	return result, err
}

func (r *Runner) fund(op model.Operation) error {
	if r.funder == nil {
		return fmt.Errorf("funding is not available: %w", model.ErrInvalidParameters)
	}
	account, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	asset, err := ParseAddress("asset", op.Asset)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return err
	}
	if amount == 0 {
		return model.ErrZeroAmount
	}
	return r.funder.Credit(account, asset, amount)
}

// poolAddress resolves the pool named by op, either directly or from its
// mints and bin step.
func (r *Runner) poolAddress(op model.Operation) (common.Address, error) {
	if op.Pool != "" {
		return ParseAddress("pool", op.Pool)
	}
	if op.TokenA == "" || op.TokenB == "" || op.BinStep == 0 {
		return common.Address{}, fmt.Errorf("pool or token_a, token_b and bin_step are required: %w", model.ErrInvalidParameters)
	}
	mintA, err := ParseAddress("token_a", op.TokenA)
	if err != nil {
		return common.Address{}, err
	}
	mintB, err := ParseAddress("token_b", op.TokenB)
	if err != nil {
		return common.Address{}, err
	}
	return r.engine.Keys().Pool(mintA, mintB, op.BinStep), nil
}

func (r *Runner) positionAddress(field, mint string) (common.Address, error) {
	addr, err := ParseAddress(field, mint)
	if err != nil {
		return common.Address{}, err
	}
	return r.engine.Keys().Position(addr), nil
}

// positionBins returns the bin references covering a position's range.
func (r *Runner) positionBins(ctx context.Context, addr common.Address) (model.Position, model.Pool, []common.Address, error) {
	position, err := r.engine.Position(ctx, addr)
	if err != nil {
		return model.Position{}, model.Pool{}, nil, err
	}
	pool, err := r.engine.Pool(ctx, position.Pool)
	if err != nil {
		return model.Position{}, model.Pool{}, nil, err
	}
	count := BinRange{From: position.LowerBinID, To: position.UpperBinID}.Count(pool.BinStep)
	refs := r.engine.Keys().BinRange(pool.Address, position.LowerBinID, int32(pool.BinStep), count)
	return position, pool, refs, nil
}

func (r *Runner) createPool(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	mintA, err := ParseAddress("token_a", op.TokenA)
	if err != nil {
		return err
	}
	mintB, err := ParseAddress("token_b", op.TokenB)
	if err != nil {
		return err
	}
	pool, err := r.engine.CreatePool(ctx, amm.CreatePoolParams{
		TokenAMint:     mintA,
		TokenBMint:     mintB,
		TokenADecimals: op.DecimalsA,
		TokenBDecimals: op.DecimalsB,
		BinStep:        op.BinStep,
		FeeRate:        op.FeeRate,
		InitialBinID:   op.BinID,
	})
	if err != nil {
		return err
	}
	r.accumulator(pool)
	result.Pool = pool.Address.Hex()
	result.ActiveBinID = &pool.ActiveBinID
	return nil
}

func (r *Runner) initBin(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	poolAddr, err := r.poolAddress(op)
	if err != nil {
		return err
	}
	if _, err := r.engine.InitializeBin(ctx, poolAddr, op.BinID); err != nil {
		return err
	}
	result.Pool = poolAddr.Hex()
	return nil
}

func (r *Runner) openPosition(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	poolAddr, err := r.poolAddress(op)
	if err != nil {
		return err
	}
	owner, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	mint, err := ParseAddress("position_mint", op.PositionMint)
	if err != nil {
		return err
	}
	position, err := r.engine.OpenPosition(ctx, amm.OpenPositionParams{
		Pool:       poolAddr,
		Owner:      owner,
		Mint:       mint,
		LowerBinID: op.Lower,
		UpperBinID: op.Upper,
	})
	if err != nil {
		return err
	}
	result.Pool = poolAddr.Hex()
	result.Position = position.Address.Hex()
	return nil
}

// addLiquidity deposits Liquidity per bin over [Lower, Upper], or the whole
// position range when both are zero, one chunk at a time. Chunks already
// committed stay committed if a later chunk is rejected.
func (r *Runner) addLiquidity(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	owner, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	addr, err := r.positionAddress("position_mint", op.PositionMint)
	if err != nil {
		return err
	}
	perBin, err := parseLiquidity("liquidity", op.Liquidity)
	if err != nil {
		return err
	}
	position, pool, _, err := r.positionBins(ctx, addr)
	if err != nil {
		return err
	}
	lower, upper := op.Lower, op.Upper
	if lower == 0 && upper == 0 {
		lower, upper = position.LowerBinID, position.UpperBinID
	}
	chunks, err := SplitRange(lower, upper, pool.BinStep, r.engine.Params().MaxBinsPerChunk())
	if err != nil {
		return fmt.Errorf("%v: %w", err, model.ErrInvalidBinRange)
	}

	var amountA, amountB uint64
	for i, chunk := range chunks {
		added, err := r.engine.AddLiquidity(ctx, amm.AddLiquidityParams{
			Position:        addr,
			Owner:           owner,
			StartBinID:      chunk.From,
			LiquidityPerBin: perBin,
			Bins:            r.engine.Keys().BinRange(pool.Address, chunk.From, int32(pool.BinStep), chunk.Count(pool.BinStep)),
		})
		if err != nil {
			return fmt.Errorf("chunk %d of %d [%d, %d]: %w", i+1, len(chunks), chunk.From, chunk.To, err)
		}
		amountA += added.AmountA
		amountB += added.AmountB
		result.Chunks++
	}
	r.accumulator(pool).AddDeposit()
	result.Pool = pool.Address.Hex()
	result.Position = addr.Hex()
	result.AmountA = strconv.FormatUint(amountA, 10)
	result.AmountB = strconv.FormatUint(amountB, 10)
	return nil
}

func (r *Runner) removeLiquidity(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	owner, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	addr, err := r.positionAddress("position_mint", op.PositionMint)
	if err != nil {
		return err
	}
	liquidity, err := parseLiquidity("liquidity", op.Liquidity)
	if err != nil {
		return err
	}
	minA, err := parseAmount("min_amount_a", op.MinAmountA)
	if err != nil {
		return err
	}
	minB, err := parseAmount("min_amount_b", op.MinAmountB)
	if err != nil {
		return err
	}
	_, pool, refs, err := r.positionBins(ctx, addr)
	if err != nil {
		return err
	}
	removed, err := r.engine.RemoveLiquidity(ctx, amm.RemoveLiquidityParams{
		Position:   addr,
		Owner:      owner,
		Liquidity:  liquidity,
		MinAmountA: minA,
		MinAmountB: minB,
		Bins:       refs,
	})
	if err != nil {
		return err
	}
	result.Pool = pool.Address.Hex()
	result.Position = addr.Hex()
	result.AmountA = strconv.FormatUint(removed.AmountA, 10)
	result.AmountB = strconv.FormatUint(removed.AmountB, 10)
	return nil
}

// swap walks up to the configured bin limit from the active bin.
func (r *Runner) swap(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	poolAddr, err := r.poolAddress(op)
	if err != nil {
		return err
	}
	trader, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	input, err := ParseAddress("asset", op.Asset)
	if err != nil {
		return err
	}
	amountIn, err := parseAmount("amount", op.Amount)
	if err != nil {
		return err
	}
	minOut, err := parseAmount("min_amount_out", op.MinAmountOut)
	if err != nil {
		return err
	}
	pool, err := r.engine.Pool(ctx, poolAddr)
	if err != nil {
		return err
	}
	if !pool.HasMint(input) {
		return model.ErrInvalidMint
	}

	aToB := input == pool.TokenAMint
	step := int32(pool.BinStep)
	source, destination := pool.TokenAVault, pool.TokenBVault
	if aToB {
		step = -step
	} else {
		source, destination = destination, source
	}
	swapped, err := r.engine.Swap(ctx, amm.SwapParams{
		Pool:             poolAddr,
		Trader:           trader,
		InputMint:        input,
		SourceVault:      source,
		DestinationVault: destination,
		AmountIn:         amountIn,
		MinAmountOut:     minOut,
		Bins:             r.engine.Keys().BinRange(poolAddr, pool.ActiveBinID, step, r.engine.Params().MaxSwapBins()),
	})
	if err != nil {
		return err
	}
	r.accumulator(pool).AddSwap(aToB, amountIn, swapped.FeeAmount)
	result.Pool = poolAddr.Hex()
	result.AmountOut = strconv.FormatUint(swapped.AmountOut, 10)
	result.ActiveBinID = &swapped.ActiveBinID
	return nil
}

func (r *Runner) rebalance(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	owner, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	oldAddr, err := r.positionAddress("position_mint", op.PositionMint)
	if err != nil {
		return err
	}
	newAddr, err := r.positionAddress("new_position_mint", op.NewMint)
	if err != nil {
		return err
	}
	minA, err := parseAmount("min_amount_a", op.MinAmountA)
	if err != nil {
		return err
	}
	minB, err := parseAmount("min_amount_b", op.MinAmountB)
	if err != nil {
		return err
	}
	_, pool, oldRefs, err := r.positionBins(ctx, oldAddr)
	if err != nil {
		return err
	}
	_, _, newRefs, err := r.positionBins(ctx, newAddr)
	if err != nil {
		return err
	}
	moved, err := r.engine.Rebalance(ctx, amm.RebalanceParams{
		Owner:       owner,
		OldPosition: oldAddr,
		NewPosition: newAddr,
		MinSurplusA: minA,
		MinSurplusB: minB,
		OldBins:     oldRefs,
		NewBins:     newRefs,
	})
	if err != nil {
		return err
	}
	result.Pool = pool.Address.Hex()
	result.Position = newAddr.Hex()
	result.AmountA = strconv.FormatUint(moved.SurplusA, 10)
	result.AmountB = strconv.FormatUint(moved.SurplusB, 10)
	return nil
}

func (r *Runner) closePosition(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	owner, err := ParseAddress("caller", op.Caller)
	if err != nil {
		return err
	}
	addr, err := r.positionAddress("position_mint", op.PositionMint)
	if err != nil {
		return err
	}
	if err := r.engine.ClosePosition(ctx, addr, owner); err != nil {
		return err
	}
	result.Position = addr.Hex()
	return nil
}

func (r *Runner) price(ctx context.Context, op model.Operation, result *model.OperationResult) error {
	poolAddr, err := r.poolAddress(op)
	if err != nil {
		return err
	}
	price, err := r.engine.QuotePrice(ctx, poolAddr, op.BinID)
	if err != nil {
		return err
	}
	result.Pool = poolAddr.Hex()
	result.Price = price.Dec()
	return nil
}

