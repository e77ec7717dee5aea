// Package ledger holds the persistent records of pools, bins and positions
// and stages per-operation changes before they are committed.
package ledger

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/model"
)

// ErrNotFound is returned by Store loads for unknown addresses.
var ErrNotFound = errors.New("record not found")

// ChangeSet is everything one operation writes. It is applied atomically.
type ChangeSet struct {
	Pools            []model.Pool
	Bins             []model.Bin
	Positions        []model.Position
	DeletedPositions []common.Address
}

// Empty reports whether the change set writes nothing.
func (c ChangeSet) Empty() bool {
	return len(c.Pools) == 0 && len(c.Bins) == 0 && len(c.Positions) == 0 && len(c.DeletedPositions) == 0
}

// Store persists ledger records keyed by derived address.
type Store interface {
	LoadPool(ctx context.Context, addr common.Address) (model.Pool, error)
	LoadBin(ctx context.Context, addr common.Address) (model.Bin, error)
	LoadPosition(ctx context.Context, addr common.Address) (model.Position, error)
	Commit(ctx context.Context, changes ChangeSet) error
}
