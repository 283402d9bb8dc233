package pools

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
	mu      sync.RWMutex
	nextID  int64
	tokens  map[int64]*Token
	pools   map[int64]*Pool
	metrics map[int64][]*Metric // poolID -> snapshots, append order

	tokenByAddr map[string]int64
	poolBySui   map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:      make(map[int64]*Token),
		pools:       make(map[int64]*Pool),
		metrics:     make(map[int64][]*Metric),
		tokenByAddr: make(map[string]int64),
		poolBySui:   make(map[string]int64),
	}
}

func (m *MemoryStore) nextSeq() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) UpsertToken(_ context.Context, t *Token) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.tokenByAddr[t.Address]; ok {
		t.ID = id
		return false, nil
	}
	cp := *t
	cp.ID = m.nextSeq()
	m.tokens[cp.ID] = &cp
	m.tokenByAddr[cp.Address] = cp.ID
	t.ID = cp.ID
	return true, nil
}

func (m *MemoryStore) UpsertPool(_ context.Context, p *Pool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.poolBySui[p.SuiPoolID]; ok {
		existing := m.pools[id]
		if existing.PoolName == "" && p.PoolName != "" {
			existing.PoolName = p.PoolName
		}
		existing.DexName = p.DexName
		p.ID = id
		return false, nil
	}
	cp := *p
	cp.ID = m.nextSeq()
	cp.CreatedAt = time.Now().UTC()
	m.pools[cp.ID] = &cp
	m.poolBySui[cp.SuiPoolID] = cp.ID
	p.ID = cp.ID
	return true, nil
}

func (m *MemoryStore) GetPool(_ context.Context, id int64) (*Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pools[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetToken(_ context.Context, id int64) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) ListPools(_ context.Context) ([]PoolSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PoolSummary, 0, len(m.pools))
	for _, p := range m.pools {
		s := PoolSummary{
			ID:        p.ID,
			SuiPoolID: p.SuiPoolID,
			PoolName:  p.PoolName,
			DexName:   p.DexName,
		}
		if t, ok := m.tokens[p.BaseID]; ok {
			s.BaseSymbol = t.Symbol
		}
		if t, ok := m.tokens[p.QuoteID]; ok {
			s.QuoteSymbol = t.Symbol
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateMetric(_ context.Context, mt *Metric) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pools[mt.PoolID]; !ok {
		return ErrPoolNotFound
	}
	cp := *mt
	cp.ID = m.nextSeq()
	if cp.CapturedAt.IsZero() {
		cp.CapturedAt = time.Now().UTC()
	}
	m.metrics[cp.PoolID] = append(m.metrics[cp.PoolID], &cp)
	mt.ID = cp.ID
	mt.CapturedAt = cp.CapturedAt
	return nil
}

func (m *MemoryStore) LatestMetric(_ context.Context, poolID int64) (*Metric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := m.metrics[poolID]
	if len(snaps) == 0 {
		return nil, ErrMetricNotFound
	}
	cp := *snaps[len(snaps)-1]
	return &cp, nil
}
