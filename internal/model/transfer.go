package model

import "github.com/ethereum/go-ethereum/common"

// Transfer is a token movement instruction handed to custody. Authority is
// the account that signs for Source: the owner for deposits and swap input,
// the pool for payouts from its vaults.
type Transfer struct {
	Source      common.Address `json:"source"`
	Destination common.Address `json:"destination"`
	Authority   common.Address `json:"authority"`
	Asset       common.Address `json:"asset"`
	Amount      uint64         `json:"amount"`
	Decimals    uint8          `json:"decimals"`
}
