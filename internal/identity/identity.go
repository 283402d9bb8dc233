// Package identity implements wallet risk identities: heuristic wallet risk
// scores, Sui Move call payloads for minting a soulbound risk badge, and the
// record of minted identities.
package identity

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("sui risk package ID is not configured")

// Tier names for the three risk levels.
const (
	TierBronze = "Bronze"
	TierSilver = "Silver"
	TierGold   = "Gold"
)

// RiskIdentity is one recorded on-chain mint of a wallet's risk badge.
type RiskIdentity struct {
	ID          int64     `json:"id"`
	Address     string    `json:"wallet_address"`
	Score       int       `json:"score"`
	Level       int       `json:"level"`
	TimestampMs int64     `json:"timestamp_ms"`
	TxDigest    string    `json:"tx_digest,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MintRecord is the request body for recording a completed mint.
type MintRecord struct {
	// Score and TimestampMs are validated in the handler: gin's "required"
	// rejects zero values, and a score of 0 is legal.
	Address     string `json:"wallet_address" binding:"required"`
	Score       int    `json:"score"`
	Level       int    `json:"level" binding:"required"`
	TimestampMs int64  `json:"timestamp_ms"`
	TxDigest    string `json:"tx_digest"`
}

// MintPayload describes the Move call a wallet frontend must execute to
// mint the risk identity object.
type MintPayload struct {
	PackageID string   `json:"package_id"`
	Module    string   `json:"module"`
	Function  string   `json:"function"`
	Args      []string `json:"args"` // [address, score, level, timestamp_ms]
}

// Store persists minted risk identities.
type Store interface {
	Create(ctx context.Context, rec *RiskIdentity) error
	// History returns records for a wallet, newest first.
	History(ctx context.Context, address string) ([]*RiskIdentity, error)
}

// TierName maps a numeric level to its display tier.
func TierName(level int) string {
	switch level {
	case 1:
		return TierBronze
	case 2:
		return TierSilver
	case 3:
		return TierGold
	default:
		return "Unknown"
	}
}
