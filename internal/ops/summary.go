package ops

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Accumulator totals activity for one pool over a run.
type Accumulator struct {
	Pool      common.Address
	DecimalsA uint8
	DecimalsB uint8
	SwapCount uint64
	Deposits  uint64
	VolumeA   *big.Int
	VolumeB   *big.Int
	FeeA      *big.Int
	FeeB      *big.Int
}

func NewAccumulator(pool common.Address, decimalsA, decimalsB uint8) *Accumulator {
	return &Accumulator{
		Pool:      pool,
		DecimalsA: decimalsA,
		DecimalsB: decimalsB,
		VolumeA:   big.NewInt(0),
		VolumeB:   big.NewInt(0),
		FeeA:      big.NewInt(0),
		FeeB:      big.NewInt(0),
	}
}

// AddSwap records a swap's input volume and fee against the input token.
func (a *Accumulator) AddSwap(aToB bool, amountIn, fee uint64) {
	volume, fees := a.VolumeB, a.FeeB
	if aToB {
		volume, fees = a.VolumeA, a.FeeA
	}
	volume.Add(volume, new(big.Int).SetUint64(amountIn))
	fees.Add(fees, new(big.Int).SetUint64(fee))
	a.SwapCount++
}

func (a *Accumulator) AddDeposit() {
	a.Deposits++
}

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}
