package custody

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/model"
)

type holding struct {
	account common.Address
	asset   common.Address
}

// Book is an in-memory Custodian. Accounts are controlled by themselves
// unless registered as a vault, in which case the registered authority signs.
type Book struct {
	mu        sync.Mutex
	balances  map[holding]uint64
	authority map[common.Address]common.Address
}

func NewBook() *Book {
	return &Book{
		balances:  make(map[holding]uint64),
		authority: make(map[common.Address]common.Address),
	}
}

// OpenVault registers account as a vault controlled by authority.
func (b *Book) OpenVault(_ context.Context, account, authority common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.authority[account]; ok && current != authority {
		return fmt.Errorf("vault %s: %w", account.Hex(), ErrBadAuthority)
	}
	b.authority[account] = authority
	return nil
}

// Credit adds amount of asset to account.
func (b *Book) Credit(account, asset common.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := holding{account: account, asset: asset}
	if b.balances[key] > math.MaxUint64-amount {
		return fmt.Errorf("credit %s: balance overflow", account.Hex())
	}
	b.balances[key] += amount
	return nil
}

// Balance returns the balance of asset held by account.
func (b *Book) Balance(account, asset common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[holding{account: account, asset: asset}]
}

func (b *Book) Apply(_ context.Context, transfers []model.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tr := range transfers {
		controller, ok := b.authority[tr.Source]
		if !ok {
			controller = tr.Source
		}
		if tr.Authority != controller {
			return fmt.Errorf("transfer from %s: %w", tr.Source.Hex(), ErrBadAuthority)
		}
	}
	return b.move(transfers, false)
}

// Revert undoes previously applied transfers.
func (b *Book) Revert(_ context.Context, transfers []model.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(transfers, true)
}

func (b *Book) move(transfers []model.Transfer, reverse bool) error {
	next := make(map[holding]uint64)
	get := func(key holding) uint64 {
		if v, ok := next[key]; ok {
			return v
		}
		return b.balances[key]
	}
	for _, tr := range transfers {
		from := holding{account: tr.Source, asset: tr.Asset}
		to := holding{account: tr.Destination, asset: tr.Asset}
		if reverse {
			from, to = to, from
		}
		if get(from) < tr.Amount {
			return fmt.Errorf("transfer %d of %s from %s: %w", tr.Amount, tr.Asset.Hex(), from.account.Hex(), ErrInsufficientFunds)
		}
		next[from] = get(from) - tr.Amount
		if get(to) > math.MaxUint64-tr.Amount {
			return fmt.Errorf("transfer to %s: balance overflow", to.account.Hex())
		}
		next[to] = get(to) + tr.Amount
	}
	for key, value := range next {
		b.balances[key] = value
	}
	return nil
}
