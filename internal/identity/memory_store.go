package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in memory, for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byAddr map[string][]*RiskIdentity // append order
}

// NewMemoryStore creates an empty in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byAddr: make(map[string][]*RiskIdentity)}
}

func (m *MemoryStore) Create(_ context.Context, rec *RiskIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	cp := *rec
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.byAddr[cp.Address] = append(m.byAddr[cp.Address], &cp)

	rec.ID = cp.ID
	rec.CreatedAt = cp.CreatedAt
	return nil
}

func (m *MemoryStore) History(_ context.Context, address string) ([]*RiskIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.byAddr[address]
	out := make([]*RiskIdentity, 0, len(recs))
	for _, rec := range recs {
		cp := *rec
		out = append(out, &cp)
	}
	// Clients may report mints with out-of-order timestamps; history is
	// ordered by the on-chain timestamp, not by insert order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampMs != out[j].TimestampMs {
			return out[i].TimestampMs > out[j].TimestampMs
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
