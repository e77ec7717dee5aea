package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/model"
)

type entry[T any] struct {
	base    T
	work    *T
	existed bool
	force   bool
}

// Txn is the copy-on-write working set of a single operation. Records are
// loaded once, mutated through the returned pointers, and only reach the
// Store through Changes. Dropping a Txn discards every mutation.
type Txn struct {
	store     Store
	pools     map[common.Address]*entry[model.Pool]
	bins      map[common.Address]*entry[model.Bin]
	positions map[common.Address]*entry[model.Position]
	deleted   map[common.Address]struct{}

	poolOrder, binOrder, positionOrder, deleteOrder []common.Address
}

func NewTxn(store Store) *Txn {
	return &Txn{
		store:     store,
		pools:     make(map[common.Address]*entry[model.Pool]),
		bins:      make(map[common.Address]*entry[model.Bin]),
		positions: make(map[common.Address]*entry[model.Position]),
		deleted:   make(map[common.Address]struct{}),
	}
}

// Pool returns the working copy of a pool, or ErrNotFound.
func (t *Txn) Pool(ctx context.Context, addr common.Address) (*model.Pool, error) {
	if e, ok := t.pools[addr]; ok {
		return e.work, nil
	}
	pool, err := t.store.LoadPool(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load pool %s: %w", addr.Hex(), err)
	}
	work := pool
	t.pools[addr] = &entry[model.Pool]{base: pool, work: &work, existed: true}
	t.poolOrder = append(t.poolOrder, addr)
	return &work, nil
}

// CreatePool stages a new pool record.
func (t *Txn) CreatePool(pool model.Pool) *model.Pool {
	work := pool
	if _, ok := t.pools[pool.Address]; !ok {
		t.poolOrder = append(t.poolOrder, pool.Address)
	}
	t.pools[pool.Address] = &entry[model.Pool]{work: &work, existed: true, force: true}
	return &work
}

// Bin returns the working copy of a bin, creating an empty one on first
// touch. An untouched empty bin is never written.
func (t *Txn) Bin(ctx context.Context, addr, pool common.Address, binID int32) (*model.Bin, error) {
	if e, ok := t.bins[addr]; ok {
		return e.work, nil
	}
	bin, err := t.store.LoadBin(ctx, addr)
	existed := true
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("load bin %s: %w", addr.Hex(), err)
		}
		existed = false
		bin = model.Bin{Address: addr, Pool: pool, BinID: binID}
	}
	work := bin
	t.bins[addr] = &entry[model.Bin]{base: bin, work: &work, existed: existed}
	t.binOrder = append(t.binOrder, addr)
	return &work, nil
}

// TouchBin forces a bin to be written even when it is still empty.
func (t *Txn) TouchBin(addr common.Address) {
	if e, ok := t.bins[addr]; ok && !e.existed {
		e.force = true
	}
}

// Position returns the working copy of a position, or ErrNotFound.
func (t *Txn) Position(ctx context.Context, addr common.Address) (*model.Position, error) {
	if _, gone := t.deleted[addr]; gone {
		return nil, ErrNotFound
	}
	if e, ok := t.positions[addr]; ok {
		return e.work, nil
	}
	position, err := t.store.LoadPosition(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load position %s: %w", addr.Hex(), err)
	}
	work := position
	t.positions[addr] = &entry[model.Position]{base: position, work: &work, existed: true}
	t.positionOrder = append(t.positionOrder, addr)
	return &work, nil
}

// CreatePosition stages a new position record.
func (t *Txn) CreatePosition(position model.Position) *model.Position {
	work := position
	delete(t.deleted, position.Address)
	if _, ok := t.positions[position.Address]; !ok {
		t.positionOrder = append(t.positionOrder, position.Address)
	}
	t.positions[position.Address] = &entry[model.Position]{work: &work, existed: true, force: true}
	return &work
}

// DeletePosition stages removal of a position.
func (t *Txn) DeletePosition(addr common.Address) {
	if _, ok := t.deleted[addr]; ok {
		return
	}
	t.deleted[addr] = struct{}{}
	t.deleteOrder = append(t.deleteOrder, addr)
}

// Changes returns every record whose working copy differs from what was
// loaded, in first-touch order.
func (t *Txn) Changes() ChangeSet {
	var changes ChangeSet
	for _, addr := range t.poolOrder {
		e := t.pools[addr]
		if e.force || *e.work != e.base {
			changes.Pools = append(changes.Pools, *e.work)
		}
	}
	for _, addr := range t.binOrder {
		e := t.bins[addr]
		if e.force || *e.work != e.base {
			changes.Bins = append(changes.Bins, *e.work)
		}
	}
	for _, addr := range t.positionOrder {
		if _, gone := t.deleted[addr]; gone {
			continue
		}
		e := t.positions[addr]
		if e.force || *e.work != e.base {
			changes.Positions = append(changes.Positions, *e.work)
		}
	}
	for _, addr := range t.deleteOrder {
		changes.DeletedPositions = append(changes.DeletedPositions, addr)
	}
	return changes
}
