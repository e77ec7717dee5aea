package model

import "github.com/ethereum/go-ethereum/common"

// Pool is the ledger record of a two-asset market.
type Pool struct {
	Address        common.Address
	BinStep        uint16
	FeeRate        uint16
	ActiveBinID    int32
	TokenAMint     common.Address
	TokenBMint     common.Address
	TokenADecimals uint8
	TokenBDecimals uint8
	TokenAVault    common.Address
	TokenBVault    common.Address
	ReservesA      uint64
	ReservesB      uint64
}

// HasMint reports whether mint is one of the pool's two assets.
func (p Pool) HasMint(mint common.Address) bool {
	return mint == p.TokenAMint || mint == p.TokenBMint
}
