// Package pools tracks DeepBook liquidity pools and their risk metric
// snapshots.
//
// Pool and token rows are synced from the Surflux market data API; metric
// snapshots are computed on demand from live order-book and trade data and
// appended as a time series.
package pools

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPoolNotFound   = errors.New("pool not found")
	ErrTokenNotFound  = errors.New("token not found")
	ErrMetricNotFound = errors.New("no metrics captured for pool")
	ErrPoolUnnamed    = errors.New("pool has no pool_name set")
)

// DexDeepbook is the canonical dex_name for pools synced from DeepBook.
const DexDeepbook = "Deepbook"

// DefaultTokenDecimals is assumed when the upstream pool listing omits a
// token's decimals. Sui native coins use 9.
const DefaultTokenDecimals = 9

// Token is one coin type referenced by at least one pool.
type Token struct {
	ID       int64  `json:"id"`
	Address  string `json:"address"` // full Sui coin type, e.g. 0x2::sui::SUI
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Pool is one tracked DeepBook pool.
type Pool struct {
	ID        int64     `json:"id"`
	SuiPoolID string    `json:"sui_pool_id"` // on-chain pool object ID
	PoolName  string    `json:"pool_name"`   // upstream symbol pair, e.g. SUI_USDC
	DexName   string    `json:"dex_name"`
	BaseID    int64     `json:"-"` // tokens.id of the base asset
	QuoteID   int64     `json:"-"` // tokens.id of the quote asset
	CreatedAt time.Time `json:"created_at"`
}

// PoolSummary is the listing row returned by GET /pools.
type PoolSummary struct {
	ID          int64  `json:"id"`
	SuiPoolID   string `json:"sui_pool_id"`
	PoolName    string `json:"pool_name"`
	DexName     string `json:"dex_name"`
	BaseSymbol  string `json:"base_symbol"`
	QuoteSymbol string `json:"quote_symbol"`
}

// Metric is one risk metric snapshot for a pool.
type Metric struct {
	ID          int64     `json:"id"`
	PoolID      int64     `json:"pool_id"`
	TVLUSD      float64   `json:"tvl_usd"`
	Volume24h   float64   `json:"volume_24h"`
	PriceVar24h float64   `json:"price_var_24h"`
	ILRisk      float64   `json:"il_risk"`
	Utilization float64   `json:"utilization"`
	RiskScore   int       `json:"risk_score"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Store persists tokens, pools, and metric snapshots.
type Store interface {
	// UpsertToken inserts the token if its address is new and reports
	// whether a row was created. Existing rows keep their original symbol,
	// name, and decimals; the token's ID is filled in either way.
	UpsertToken(ctx context.Context, t *Token) (created bool, err error)

	// UpsertPool inserts the pool if its Sui pool ID is new and reports
	// whether a row was created. On an existing row the pool name is
	// backfilled if empty and the dex name normalized; the pool's ID is
	// filled in either way.
	UpsertPool(ctx context.Context, p *Pool) (created bool, err error)

	GetPool(ctx context.Context, id int64) (*Pool, error)
	GetToken(ctx context.Context, id int64) (*Token, error)
	ListPools(ctx context.Context) ([]PoolSummary, error)

	CreateMetric(ctx context.Context, m *Metric) error
	LatestMetric(ctx context.Context, poolID int64) (*Metric, error)
}
