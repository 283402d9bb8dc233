package pools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed pool store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tokens, pools, and pool_metrics tables if they don't
// exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tokens (
			id        BIGSERIAL PRIMARY KEY,
			address   TEXT NOT NULL UNIQUE,
			symbol    VARCHAR(32) NOT NULL DEFAULT '',
			name      VARCHAR(128) NOT NULL DEFAULT '',
			decimals  INT NOT NULL DEFAULT 9
		);
		CREATE TABLE IF NOT EXISTS pools (
			id           BIGSERIAL PRIMARY KEY,
			sui_pool_id  TEXT NOT NULL UNIQUE,
			pool_name    VARCHAR(64) NOT NULL DEFAULT '',
			dex_name     VARCHAR(32) NOT NULL DEFAULT '',
			base_id      BIGINT NOT NULL REFERENCES tokens(id),
			quote_id     BIGINT NOT NULL REFERENCES tokens(id),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS pool_metrics (
			id             BIGSERIAL PRIMARY KEY,
			pool_id        BIGINT NOT NULL REFERENCES pools(id) ON DELETE CASCADE,
			tvl_usd        DOUBLE PRECISION NOT NULL DEFAULT 0,
			volume_24h     DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_var_24h  DOUBLE PRECISION NOT NULL DEFAULT 0,
			il_risk        DOUBLE PRECISION NOT NULL DEFAULT 0,
			utilization    DOUBLE PRECISION NOT NULL DEFAULT 0,
			risk_score     INT NOT NULL DEFAULT 0,
			captured_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_pool_metrics_pool_captured
			ON pool_metrics(pool_id, captured_at DESC);
	`)
	return err
}

// UpsertToken inserts the token if its address is new. Concurrent syncs of
// the same token race harmlessly: ON CONFLICT leaves the first row in place.
func (p *PostgresStore) UpsertToken(ctx context.Context, t *Token) (bool, error) {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO tokens (address, symbol, name, decimals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
		RETURNING id
	`, t.Address, t.Symbol, t.Name, t.Decimals).Scan(&t.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert token: %w", err)
	}

	err = p.db.QueryRowContext(ctx,
		`SELECT id FROM tokens WHERE address = $1`, t.Address).Scan(&t.ID)
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return false, nil
}

// UpsertPool inserts the pool if its Sui pool ID is new; on conflict it
// backfills an empty pool_name and normalizes dex_name. The xmax = 0 check
// distinguishes a fresh insert from a conflict update.
func (p *PostgresStore) UpsertPool(ctx context.Context, pl *Pool) (bool, error) {
	var inserted bool
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO pools (sui_pool_id, pool_name, dex_name, base_id, quote_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sui_pool_id) DO UPDATE SET
			pool_name = CASE WHEN pools.pool_name = '' THEN EXCLUDED.pool_name
			                 ELSE pools.pool_name END,
			dex_name = EXCLUDED.dex_name
		RETURNING id, (xmax = 0)
	`, pl.SuiPoolID, pl.PoolName, pl.DexName, pl.BaseID, pl.QuoteID).Scan(&pl.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert pool: %w", err)
	}
	return inserted, nil
}

func (p *PostgresStore) GetPool(ctx context.Context, id int64) (*Pool, error) {
	pl := &Pool{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, sui_pool_id, pool_name, dex_name, base_id, quote_id, created_at
		FROM pools WHERE id = $1
	`, id).Scan(&pl.ID, &pl.SuiPoolID, &pl.PoolName, &pl.DexName, &pl.BaseID, &pl.QuoteID, &pl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}
	return pl, nil
}

func (p *PostgresStore) GetToken(ctx context.Context, id int64) (*Token, error) {
	t := &Token{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, address, symbol, name, decimals FROM tokens WHERE id = $1
	`, id).Scan(&t.ID, &t.Address, &t.Symbol, &t.Name, &t.Decimals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (p *PostgresStore) ListPools(ctx context.Context) ([]PoolSummary, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT p.id, p.sui_pool_id, p.pool_name, p.dex_name,
		       COALESCE(b.symbol, ''), COALESCE(q.symbol, '')
		FROM pools p
		LEFT JOIN tokens b ON b.id = p.base_id
		LEFT JOIN tokens q ON q.id = p.quote_id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var out []PoolSummary
	for rows.Next() {
		var s PoolSummary
		if err := rows.Scan(&s.ID, &s.SuiPoolID, &s.PoolName, &s.DexName,
			&s.BaseSymbol, &s.QuoteSymbol); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateMetric(ctx context.Context, m *Metric) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO pool_metrics
			(pool_id, tvl_usd, volume_24h, price_var_24h, il_risk, utilization, risk_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, captured_at
	`, m.PoolID, m.TVLUSD, m.Volume24h, m.PriceVar24h, m.ILRisk, m.Utilization,
		m.RiskScore).Scan(&m.ID, &m.CapturedAt)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

func (p *PostgresStore) LatestMetric(ctx context.Context, poolID int64) (*Metric, error) {
	m := &Metric{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, pool_id, tvl_usd, volume_24h, price_var_24h, il_risk,
		       utilization, risk_score, captured_at
		FROM pool_metrics WHERE pool_id = $1
		ORDER BY captured_at DESC, id DESC LIMIT 1
	`, poolID).Scan(&m.ID, &m.PoolID, &m.TVLUSD, &m.Volume24h, &m.PriceVar24h,
		&m.ILRisk, &m.Utilization, &m.RiskScore, &m.CapturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMetricNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest metric: %w", err)
	}
	return m, nil
}
