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

// RequiredForBin returns the token amounts backing liquidity in binID.
// Bins above the active bin hold token A, bins below hold token B valued at
// the bin price, and the active bin holds both.
func RequiredForBin(activeBinID, binID int32, binStep uint16, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	amountA, amountB := new(uint256.Int), new(uint256.Int)
	if binID >= activeBinID {
		amountA.Set(liquidity)
	}
	if binID <= activeBinID {
		price, err := binmath.Price(binID, binStep)
		if err != nil {
			return nil, nil, err
		}
		if amountB, err = binmath.MulDiv(liquidity, price, binmath.Precision()); err != nil {
			return nil, nil, err
		}
	}
	return amountA, amountB, nil
}

// RequiredForRange returns the totals needed to spread total liquidity
// uniformly over [lower, upper]. The remainder of total / bin count is not
// placed.
func RequiredForRange(pool model.Pool, lower, upper int32, total *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	count := binCount(lower, upper, pool.BinStep)
	if count == 0 {
		return nil, nil, model.ErrInvalidBinRange
	}
	perBin := new(uint256.Int).Div(total, uint256.NewInt(count))

	sumA, sumB := new(uint256.Int), new(uint256.Int)
	for i := 0; uint64(i) < count; i++ {
		binID, err := binAt(lower, int64(pool.BinStep), i)
		if err != nil {
			return nil, nil, err
		}
		a, b, err := RequiredForBin(pool.ActiveBinID, binID, pool.BinStep, perBin)
		if err != nil {
			return nil, nil, err
		}
		if sumA, err = binmath.Add(sumA, a); err != nil {
			return nil, nil, err
		}
		if sumB, err = binmath.Add(sumB, b); err != nil {
			return nil, nil, err
		}
	}
	return sumA, sumB, nil
}

// Claimable returns the principal owed for liquidity of position at the
// pool's current active bin.
func Claimable(pool model.Pool, position model.Position, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	return RequiredForRange(pool, position.LowerBinID, position.UpperBinID, liquidity)
}

// AddLiquidityParams describes one chunk of a deposit: len(Bins) consecutive
// bins starting at StartBinID, each receiving LiquidityPerBin.
type AddLiquidityParams struct {
	Position        common.Address
	Owner           common.Address
	StartBinID      int32
	LiquidityPerBin *uint256.Int
	Bins            []common.Address
}

type AddLiquidityResult struct {
	AmountA        uint64
	AmountB        uint64
	LiquidityAdded uint256.Int
}

// AddLiquidity deposits one chunk. The owner pays the summed requirement of
// the chunk in one transfer per token.
func (e *Engine) AddLiquidity(ctx context.Context, params AddLiquidityParams) (AddLiquidityResult, error) {
	var result AddLiquidityResult
	err := e.apply(ctx, "add_liquidity", func(txn *ledger.Txn, fx *effects) error {
		if params.LiquidityPerBin == nil || params.LiquidityPerBin.IsZero() {
			return model.ErrZeroLiquidity
		}
		if len(params.Bins) == 0 || len(params.Bins) > e.params.MaxBinsPerChunk() {
			return model.ErrInvalidBinCount
		}
		position, pool, err := e.loadOwnedPosition(ctx, txn, params.Position, params.Owner)
		if err != nil {
			return err
		}
		if !isBinID(params.StartBinID, pool.BinStep) {
			return model.ErrInvalidBinID
		}

		// First pass: validate every reference and total what the chunk needs.
		type binNeed struct {
			id   int32
			ref  common.Address
			a, b *uint256.Int
		}
		needs := make([]binNeed, 0, len(params.Bins))
		totalA, totalB := new(uint256.Int), new(uint256.Int)
		for i, ref := range params.Bins {
			binID, err := binAt(params.StartBinID, int64(pool.BinStep), i)
			if err != nil {
				return err
			}
			if binID < position.LowerBinID || binID > position.UpperBinID {
				return fmt.Errorf("bin %d: %w", binID, model.ErrInvalidBinRange)
			}
			if ref != e.keys.Bin(pool.Address, binID) {
				return fmt.Errorf("bin %d: %w", binID, model.ErrInvalidBinAccount)
			}
			a, b, err := RequiredForBin(pool.ActiveBinID, binID, pool.BinStep, params.LiquidityPerBin)
			if err != nil {
				return err
			}
			if totalA, err = binmath.Add(totalA, a); err != nil {
				return err
			}
			if totalB, err = binmath.Add(totalB, b); err != nil {
				return err
			}
			needs = append(needs, binNeed{id: binID, ref: ref, a: a, b: b})
		}

		amountA, err := binmath.ToUint64(totalA)
		if err != nil {
			return err
		}
		amountB, err := binmath.ToUint64(totalB)
		if err != nil {
			return err
		}
		if pool.ReservesA, err = addReserve(pool.ReservesA, amountA); err != nil {
			return err
		}
		if pool.ReservesB, err = addReserve(pool.ReservesB, amountB); err != nil {
			return err
		}
		fx.transfer(deposit(pool, true, params.Owner, amountA))
		fx.transfer(deposit(pool, false, params.Owner, amountB))

		// Second pass: credit the bins.
		maxGrowthA, maxGrowthB := new(uint256.Int), new(uint256.Int)
		for _, need := range needs {
			bin, err := txn.Bin(ctx, need.ref, pool.Address, need.id)
			if err != nil {
				return err
			}
			if err := creditBin(bin, params.LiquidityPerBin, need.a, need.b); err != nil {
				return err
			}
			maxGrowthA = binmath.Max(maxGrowthA, &bin.FeeGrowthA)
			maxGrowthB = binmath.Max(maxGrowthB, &bin.FeeGrowthB)
		}

		added, err := binmath.Mul(params.LiquidityPerBin, uint256.NewInt(uint64(len(needs))))
		if err != nil {
			return err
		}
		total, err := binmath.Add(&position.Liquidity, added)
		if err != nil {
			return err
		}
		position.Liquidity = *total
		raiseSnapshot(position, maxGrowthA, maxGrowthB)

		result = AddLiquidityResult{AmountA: amountA, AmountB: amountB, LiquidityAdded: *added}
		return nil
	})
	if err != nil {
		return AddLiquidityResult{}, err
	}

	e.logger.Info("liquidity added",
		zap.String("position", params.Position.Hex()),
		zap.Int32("start_bin", params.StartBinID),
		zap.Int("bins", len(params.Bins)),
		zap.Uint64("amount_a", result.AmountA),
		zap.Uint64("amount_b", result.AmountB),
	)
	return result, nil
}

func creditBin(bin *model.Bin, liquidity, amountA, amountB *uint256.Int) error {
	l, err := binmath.Add(&bin.Liquidity, liquidity)
	if err != nil {
		return err
	}
	a, err := binmath.Add(&bin.AmountA, amountA)
	if err != nil {
		return err
	}
	b, err := binmath.Add(&bin.AmountB, amountB)
	if err != nil {
		return err
	}
	bin.Liquidity, bin.AmountA, bin.AmountB = *l, *a, *b
	return nil
}

// debitBin removes liquidity and its backing from a bin. Liquidity must not
// underflow; the backing balances saturate at zero.
func debitBin(bin *model.Bin, liquidity, amountA, amountB *uint256.Int) error {
	l, err := binmath.Sub(&bin.Liquidity, liquidity)
	if err != nil {
		return err
	}
	bin.Liquidity = *l
	bin.AmountA = *binmath.SaturatingSub(&bin.AmountA, amountA)
	bin.AmountB = *binmath.SaturatingSub(&bin.AmountB, amountB)
	return nil
}

func addReserve(reserve, amount uint64) (uint64, error) {
	if reserve+amount < reserve {
		return 0, model.ErrMathOverflow
	}
	return reserve + amount, nil
}

func subReserve(reserve, amount uint64) (uint64, error) {
	if amount > reserve {
		return 0, model.ErrMathOverflow
	}
	return reserve - amount, nil
}
