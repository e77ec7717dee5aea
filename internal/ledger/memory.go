package ledger

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"binFlow/internal/model"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu        sync.RWMutex
	pools     map[common.Address]model.Pool
	bins      map[common.Address]model.Bin
	positions map[common.Address]model.Position
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:     make(map[common.Address]model.Pool),
		bins:      make(map[common.Address]model.Bin),
		positions: make(map[common.Address]model.Position),
	}
}

func (s *MemoryStore) LoadPool(_ context.Context, addr common.Address) (model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[addr]
	if !ok {
		return model.Pool{}, ErrNotFound
	}
	return pool, nil
}

func (s *MemoryStore) LoadBin(_ context.Context, addr common.Address) (model.Bin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bin, ok := s.bins[addr]
	if !ok {
		return model.Bin{}, ErrNotFound
	}
	return bin, nil
}

func (s *MemoryStore) LoadPosition(_ context.Context, addr common.Address) (model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions[addr]
	if !ok {
		return model.Position{}, ErrNotFound
	}
	return position, nil
}

// Commit applies changes under a single lock.
func (s *MemoryStore) Commit(_ context.Context, changes ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pool := range changes.Pools {
		s.pools[pool.Address] = pool
	}
	for _, bin := range changes.Bins {
		s.bins[bin.Address] = bin
	}
	for _, position := range changes.Positions {
		s.positions[position.Address] = position
	}
	for _, addr := range changes.DeletedPositions {
		delete(s.positions, addr)
	}
	return nil
}

// Pools returns a copy of every stored pool.
func (s *MemoryStore) Pools() []model.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		out = append(out, pool)
	}
	return out
}
