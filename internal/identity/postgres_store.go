package identity

import (
	"context"
	"database/sql"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed identity store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_identities table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_identities (
			id             BIGSERIAL PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			score          INT NOT NULL,
			level          INT NOT NULL,
			timestamp_ms   BIGINT NOT NULL,
			tx_digest      TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_risk_identities_wallet
			ON risk_identities(wallet_address, created_at DESC);
	`)
	return err
}

func (p *PostgresStore) Create(ctx context.Context, rec *RiskIdentity) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO risk_identities (wallet_address, score, level, timestamp_ms, tx_digest)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rec.Address, rec.Score, rec.Level, rec.TimestampMs, rec.TxDigest).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (p *PostgresStore) History(ctx context.Context, address string) ([]*RiskIdentity, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, wallet_address, score, level, timestamp_ms, tx_digest, created_at
		FROM risk_identities
		WHERE wallet_address = $1
		ORDER BY timestamp_ms DESC, id DESC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []*RiskIdentity{}
	for rows.Next() {
		rec := &RiskIdentity{}
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.Score, &rec.Level,
			&rec.TimestampMs, &rec.TxDigest, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
