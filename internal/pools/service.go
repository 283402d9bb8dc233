package pools

import (
	"context"
	"fmt"

	"github.com/ekinalp/suirisk/internal/logging"
	"github.com/ekinalp/suirisk/internal/metrics"
	"github.com/ekinalp/suirisk/internal/risk"
	"github.com/ekinalp/suirisk/internal/surflux"
	"github.com/ekinalp/suirisk/internal/traces"
)

// DefaultGraphTradesLimit bounds the trade sample used to build a wallet
// interaction graph.
const DefaultGraphTradesLimit = 200

// MarketClient is the slice of the Surflux client the pool service needs.
type MarketClient interface {
	GetPools(ctx context.Context) ([]surflux.PoolInfo, error)
	GetOrderBookDepth(ctx context.Context, poolName string, limit int) (*surflux.OrderBook, error)
	GetRecentTrades(ctx context.Context, poolName string, limit int) ([]surflux.Trade, error)
}

// Events receives notifications about captured metric snapshots.
// Implementations must not block.
type Events interface {
	MetricCaptured(pool *Pool, m *Metric)
}

// Service provides pool sync and risk metric business logic.
type Service struct {
	store  Store
	market MarketClient
	events Events // optional
}

// NewService creates a new pool service.
func NewService(store Store, market MarketClient) *Service {
	return &Service{store: store, market: market}
}

// SetEvents wires an event sink for metric broadcasts.
func (s *Service) SetEvents(ev Events) { s.events = ev }

// SyncResult reports the outcome of a pool list sync.
type SyncResult struct {
	TotalReceived int `json:"total_pools_from_api"`
	NewPools      int `json:"new_pools_added"`
}

// SyncPools fetches the DeepBook pool list and upserts tokens and pools.
// Re-running a sync against unchanged upstream data creates no new rows.
func (s *Service) SyncPools(ctx context.Context) (*SyncResult, error) {
	ctx, span := traces.StartSpan(ctx, "pools.sync")
	defer span.End()

	infos, err := s.market.GetPools(ctx)
	if err != nil {
		metrics.PoolSyncsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch pool list: %w", err)
	}

	result := &SyncResult{TotalReceived: len(infos)}
	for _, info := range infos {
		base := tokenFromListing(info.BaseAssetID, info.BaseAssetSymbol, info.BaseAssetName, info.BaseAssetDecimals)
		if _, err := s.store.UpsertToken(ctx, base); err != nil {
			metrics.PoolSyncsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("upsert base token %s: %w", info.BaseAssetID, err)
		}
		quote := tokenFromListing(info.QuoteAssetID, info.QuoteAssetSymbol, info.QuoteAssetName, info.QuoteAssetDecimal)
		if _, err := s.store.UpsertToken(ctx, quote); err != nil {
			metrics.PoolSyncsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("upsert quote token %s: %w", info.QuoteAssetID, err)
		}

		pool := &Pool{
			SuiPoolID: info.PoolID,
			PoolName:  info.PoolName,
			DexName:   DexDeepbook,
			BaseID:    base.ID,
			QuoteID:   quote.ID,
		}
		created, err := s.store.UpsertPool(ctx, pool)
		if err != nil {
			metrics.PoolSyncsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("upsert pool %s: %w", info.PoolID, err)
		}
		if created {
			result.NewPools++
		}
	}

	metrics.PoolSyncsTotal.WithLabelValues("ok").Inc()
	logging.L(ctx).Info("pool list synced",
		"received", result.TotalReceived, "new", result.NewPools)
	return result, nil
}

func tokenFromListing(addr, symbol, name string, decimals *int) *Token {
	t := &Token{Address: addr, Symbol: symbol, Name: name, Decimals: DefaultTokenDecimals}
	if decimals != nil {
		t.Decimals = *decimals
	}
	return t
}

// ListPools returns all tracked pools.
func (s *Service) ListPools(ctx context.Context) ([]PoolSummary, error) {
	return s.store.ListPools(ctx)
}

// LatestMetric returns the most recent metric snapshot for a pool.
func (s *Service) LatestMetric(ctx context.Context, poolID int64) (*Metric, error) {
	if _, err := s.store.GetPool(ctx, poolID); err != nil {
		return nil, err
	}
	return s.store.LatestMetric(ctx, poolID)
}

// SyncPoolMetrics computes a fresh risk metric snapshot for one pool from
// live order-book and trade data, and appends it to the metric time series.
func (s *Service) SyncPoolMetrics(ctx context.Context, poolID int64, tradesLimit int) (*Metric, error) {
	ctx, span := traces.StartSpan(ctx, "pools.sync_metrics", traces.PoolID(poolID))
	defer span.End()

	pool, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool.PoolName == "" {
		return nil, ErrPoolUnnamed
	}
	span.SetAttributes(traces.PoolName(pool.PoolName))

	baseDecimals, quoteDecimals := s.poolDecimals(ctx, pool)

	pm := risk.ComputePoolRiskMetrics(ctx, marketSource{s.market},
		pool.PoolName, baseDecimals, quoteDecimals, tradesLimit)

	m := &Metric{
		PoolID:      pool.ID,
		TVLUSD:      pm.TVLUSD,
		Volume24h:   pm.Volume24h,
		PriceVar24h: pm.PriceVar24h,
		ILRisk:      pm.ILRisk,
		Utilization: pm.Utilization,
		RiskScore:   pm.RiskScore,
	}
	if err := s.store.CreateMetric(ctx, m); err != nil {
		metrics.MetricSnapshotsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store metric: %w", err)
	}

	metrics.MetricSnapshotsTotal.WithLabelValues("ok").Inc()
	metrics.PoolRiskScore.Observe(float64(m.RiskScore))
	span.SetAttributes(traces.RiskScore(m.RiskScore))

	if pm.Error != "" {
		logging.L(ctx).Warn("metric snapshot degraded",
			"pool", pool.PoolName, "score", m.RiskScore, "reason", pm.Error)
	} else {
		logging.L(ctx).Info("metric snapshot captured",
			"pool", pool.PoolName, "score", m.RiskScore)
	}

	if s.events != nil {
		s.events.MetricCaptured(pool, m)
	}
	return m, nil
}

// poolDecimals looks up token decimals for scaling raw on-chain amounts,
// falling back to the Sui default when a token row is missing.
func (s *Service) poolDecimals(ctx context.Context, pool *Pool) (base, quote int) {
	base, quote = DefaultTokenDecimals, DefaultTokenDecimals
	if t, err := s.store.GetToken(ctx, pool.BaseID); err == nil {
		base = t.Decimals
	}
	if t, err := s.store.GetToken(ctx, pool.QuoteID); err == nil {
		quote = t.Decimals
	}
	return base, quote
}

// PoolSyncOutcome is one entry of a batch metric sync.
type PoolSyncOutcome struct {
	PoolID    int64   `json:"pool_id"`
	PoolName  string  `json:"pool_name"`
	RiskScore *int    `json:"risk_score,omitempty"`
	Error     string  `json:"error,omitempty"`
	TVLUSD    float64 `json:"tvl_usd"`
}

// SyncAllMetrics computes a metric snapshot for every tracked pool. A
// failure on one pool is recorded in its outcome and does not abort the
// rest of the batch.
func (s *Service) SyncAllMetrics(ctx context.Context, tradesLimit int) ([]PoolSyncOutcome, error) {
	ctx, span := traces.StartSpan(ctx, "pools.sync_all_metrics")
	defer span.End()

	summaries, err := s.store.ListPools(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PoolSyncOutcome, 0, len(summaries))
	for _, ps := range summaries {
		outcome := PoolSyncOutcome{PoolID: ps.ID, PoolName: ps.PoolName}
		m, err := s.SyncPoolMetrics(ctx, ps.ID, tradesLimit)
		if err != nil {
			outcome.Error = err.Error()
		} else {
			score := m.RiskScore
			outcome.RiskScore = &score
			outcome.TVLUSD = m.TVLUSD
		}
		out = append(out, outcome)
	}
	return out, nil
}

// TradeGraph builds the wallet interaction graph for a pool from its most
// recent trades.
func (s *Service) TradeGraph(ctx context.Context, poolID int64, limit int) (*risk.TradeGraph, error) {
	ctx, span := traces.StartSpan(ctx, "pools.trade_graph", traces.PoolID(poolID))
	defer span.End()

	pool, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool.PoolName == "" {
		return nil, ErrPoolUnnamed
	}
	if limit <= 0 {
		limit = DefaultGraphTradesLimit
	}

	raw, err := s.market.GetRecentTrades(ctx, pool.PoolName, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch trades for %s: %w", pool.PoolName, err)
	}

	_, quoteDecimals := s.poolDecimals(ctx, pool)
	graph := risk.BuildTradeGraph(convertTrades(raw), quoteDecimals)
	return &graph, nil
}

// marketSource adapts a MarketClient to the risk scorer's input interface.
type marketSource struct {
	c MarketClient
}

func (ms marketSource) OrderBookDepth(ctx context.Context, poolName string, limit int) (risk.OrderBook, error) {
	book, err := ms.c.GetOrderBookDepth(ctx, poolName, limit)
	if err != nil {
		return risk.OrderBook{}, err
	}
	out := risk.OrderBook{
		Bids: make([]risk.BookLevel, len(book.Bids)),
		Asks: make([]risk.BookLevel, len(book.Asks)),
	}
	for i, l := range book.Bids {
		out.Bids[i] = risk.BookLevel{Price: l.Price.Float(), TotalQuantity: l.TotalQuantity.Float()}
	}
	for i, l := range book.Asks {
		out.Asks[i] = risk.BookLevel{Price: l.Price.Float(), TotalQuantity: l.TotalQuantity.Float()}
	}
	return out, nil
}

func (ms marketSource) RecentTrades(ctx context.Context, poolName string, limit int) ([]risk.Trade, error) {
	raw, err := ms.c.GetRecentTrades(ctx, poolName, limit)
	if err != nil {
		return nil, err
	}
	return convertTrades(raw), nil
}

func convertTrades(raw []surflux.Trade) []risk.Trade {
	out := make([]risk.Trade, len(raw))
	for i, t := range raw {
		out[i] = risk.Trade{
			Price:         t.Price.Float(),
			QuoteQuantity: t.QuoteQuantity.Float(),
			Maker:         t.MakerBalanceManagerID,
			Taker:         t.TakerBalanceManagerID,
		}
	}
	return out
}
