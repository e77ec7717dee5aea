package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RebalanceEventData is the LiquidityRebalanced payload.
type RebalanceEventData struct {
	Pool           string `json:"pool"`
	Owner          string `json:"owner"`
	OldPosition    string `json:"old_position"`
	NewPosition    string `json:"new_position"`
	LiquidityMoved string `json:"liquidity_moved"`
	NewLowerBinID  int32  `json:"new_lower_bin_id"`
	NewUpperBinID  int32  `json:"new_upper_bin_id"`
}

// SwapEventData is the Swap payload.
type SwapEventData struct {
	Pool        string `json:"pool"`
	Trader      string `json:"trader"`
	AToB        bool   `json:"a_to_b"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	FeeAmount   string `json:"fee_amount"`
	StartBinID  int32  `json:"start_bin_id"`
	ActiveBinID int32  `json:"active_bin_id"`
}

// Rebalanced is emitted when a position's liquidity is moved to a new range.
type Rebalanced struct {
	Pool           common.Address
	Owner          common.Address
	OldPosition    common.Address
	NewPosition    common.Address
	LiquidityMoved uint256.Int
	NewLowerBinID  int32
	NewUpperBinID  int32
}

// Swapped is emitted for every executed swap.
type Swapped struct {
	Pool        common.Address
	Trader      common.Address
	AToB        bool
	AmountIn    uint64
	AmountOut   uint64
	FeeAmount   uint64
	StartBinID  int32
	ActiveBinID int32
}
