package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Bin is one discrete price bucket of a pool. Liquidity is in share units;
// AmountA and AmountB are the token balances that back it and bound how much
// a swap can take out.
type Bin struct {
	Address    common.Address
	Pool       common.Address
	BinID      int32
	Liquidity  uint256.Int
	FeeGrowthA uint256.Int
	FeeGrowthB uint256.Int
	AmountA    uint256.Int
	AmountB    uint256.Int
}
