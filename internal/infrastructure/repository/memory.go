package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

// MemoryVaultStore is an in-memory vault.Store used in tests and for local
// development without Postgres. It honors the same atomicity contract as
// the SQL implementation: UpdateStatus compares-and-swaps under the lock.
type MemoryVaultStore struct {
	mu  sync.RWMutex
	txs map[int64]*vault.Transaction
}

// NewMemoryVaultStore creates an empty in-memory store
func NewMemoryVaultStore() *MemoryVaultStore {
	return &MemoryVaultStore{txs: make(map[int64]*vault.Transaction)}
}

func (s *MemoryVaultStore) Create(_ context.Context, t *vault.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := t.Snapshot()
	s.txs[t.ID] = &cp
	return nil
}

func (s *MemoryVaultStore) GetByID(_ context.Context, id int64) (*vault.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.txs[id]
	if !ok {
		return nil, vaultsvc.ErrTxNotFound
	}
	cp := t.Snapshot()
	return &cp, nil
}

func (s *MemoryVaultStore) UpdateStatus(_ context.Context, id int64, from, to vault.Status, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok {
		return vaultsvc.ErrTxNotFound
	}
	if t.Status != from {
		return vaultsvc.ErrStatusConflict
	}

	t.Status = to
	resolved := resolvedAt
	t.ResolvedAt = &resolved
	return nil
}

func (s *MemoryVaultStore) ListByAddress(_ context.Context, addr values.Address) ([]*vault.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*vault.Transaction
	for _, t := range s.txs {
		if t.Involves(addr) {
			cp := t.Snapshot()
			out = append(out, &cp)
		}
	}
	sortByID(out)
	return out, nil
}

func (s *MemoryVaultStore) ListReleasable(_ context.Context, asOf time.Time, limit int) ([]*vault.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*vault.Transaction
	for _, t := range s.txs {
		if t.Status == vault.StatusPending && t.Unlocked(asOf) {
			cp := t.Snapshot()
			out = append(out, &cp)
		}
	}
	sortByID(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryVaultStore) MaxID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for id := range s.txs {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func sortByID(txs []*vault.Transaction) {
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
}
