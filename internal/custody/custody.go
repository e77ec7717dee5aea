// Package custody holds token balances and position credentials outside the
// ledger. The engine only ever hands it instructions.
package custody

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBadAuthority      = errors.New("transfer authority does not control source")
	ErrCredentialExists  = errors.New("credential already issued")
	ErrNoCredential      = errors.New("credential not found")
)

// Custodian executes token transfer instructions. Apply is all-or-nothing.
type Custodian interface {
	OpenVault(ctx context.Context, account, authority common.Address) error
	Apply(ctx context.Context, transfers []model.Transfer) error
	Revert(ctx context.Context, transfers []model.Transfer) error
}

// Credential is the one-off token representing ownership of a position.
type Credential struct {
	Mint   common.Address `json:"mint"`
	Owner  common.Address `json:"owner"`
	Name   string         `json:"name"`
	Symbol string         `json:"symbol"`
}

// Issuer mints and burns position credentials.
type Issuer interface {
	Issue(ctx context.Context, credential Credential) error
	Burn(ctx context.Context, mint, owner common.Address) error
}
