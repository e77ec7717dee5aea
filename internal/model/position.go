package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Position is an owner's uniform liquidity over [LowerBinID, UpperBinID].
// Mint identifies the ownership credential; Address is derived from it.
type Position struct {
	Address            common.Address
	Pool               common.Address
	Owner              common.Address
	Mint               common.Address
	LowerBinID         int32
	UpperBinID         int32
	Liquidity          uint256.Int
	FeeGrowthSnapshotA uint256.Int
	FeeGrowthSnapshotB uint256.Int
}

// BinCount returns the number of bins covered for the given step.
func (p Position) BinCount(binStep uint16) uint64 {
	if binStep == 0 || p.UpperBinID < p.LowerBinID {
		return 0
	}
	return uint64(int64(p.UpperBinID)-int64(p.LowerBinID))/uint64(binStep) + 1
}
