package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ekinalp/suirisk/internal/logging"
	"github.com/ekinalp/suirisk/internal/metrics"
	"github.com/ekinalp/suirisk/internal/risk"
	"github.com/ekinalp/suirisk/internal/traces"
)

// MoveTarget identifies the on-chain Move function that mints risk
// identity objects.
type MoveTarget struct {
	PackageID string
	Module    string
	Function  string
}

// Events receives notifications about recorded mints.
// Implementations must not block.
type Events interface {
	IdentityMinted(rec *RiskIdentity)
}

// Service provides wallet risk scoring and mint bookkeeping.
type Service struct {
	store  Store
	target MoveTarget
	events Events // optional

	now func() time.Time // test hook
}

// NewService creates a new identity service.
func NewService(store Store, target MoveTarget) *Service {
	return &Service{store: store, target: target, now: time.Now}
}

// SetEvents wires an event sink for mint broadcasts.
func (s *Service) SetEvents(ev Events) { s.events = ev }

// WalletRisk is the computed risk profile for a wallet.
type WalletRisk struct {
	Address string `json:"address"`
	Score   int    `json:"score"`
	Level   int    `json:"level"`
	Tier    string `json:"tier"`
}

// WalletScore computes the deterministic risk profile for a wallet address.
func (s *Service) WalletScore(address string) WalletRisk {
	score := risk.WalletScore(address)
	level := risk.LevelFromScore(score)
	return WalletRisk{
		Address: address,
		Score:   score,
		Level:   level,
		Tier:    TierName(level),
	}
}

// BuildMintPayload computes the wallet's current risk profile and returns
// the Move call a frontend must execute to mint it on chain. The score,
// level, and timestamp are serialized as strings because Move u64 arguments
// exceed JSON-safe integer range.
func (s *Service) BuildMintPayload(ctx context.Context, address string) (*MintPayload, *WalletRisk, error) {
	_, span := traces.StartSpan(ctx, "identity.mint_payload", traces.WalletAddr(address))
	defer span.End()

	if s.target.PackageID == "" {
		return nil, nil, ErrNotConfigured
	}

	profile := s.WalletScore(address)
	span.SetAttributes(traces.RiskScore(profile.Score))

	payload := &MintPayload{
		PackageID: s.target.PackageID,
		Module:    s.target.Module,
		Function:  s.target.Function,
		Args: []string{
			address,
			strconv.Itoa(profile.Score),
			strconv.Itoa(profile.Level),
			strconv.FormatInt(s.now().UnixMilli(), 10),
		},
	}

	metrics.IdentityMintPayloadsTotal.Inc()
	return payload, &profile, nil
}

// Record stores a completed mint as reported by the client. The fields are
// taken as-is: the on-chain object is the source of truth and this table is
// bookkeeping for it.
func (s *Service) Record(ctx context.Context, req *MintRecord) (*RiskIdentity, error) {
	ctx, span := traces.StartSpan(ctx, "identity.record", traces.WalletAddr(req.Address))
	defer span.End()

	rec := &RiskIdentity{
		Address:     req.Address,
		Score:       req.Score,
		Level:       req.Level,
		TimestampMs: req.TimestampMs,
		TxDigest:    req.TxDigest,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store identity: %w", err)
	}

	metrics.IdentitiesStoredTotal.Inc()
	logging.L(ctx).Info("risk identity recorded",
		"address", rec.Address, "score", rec.Score, "level", rec.Level,
		"tx_digest", rec.TxDigest)

	if s.events != nil {
		s.events.IdentityMinted(rec)
	}
	return rec, nil
}

// History returns all recorded mints for a wallet, newest first.
func (s *Service) History(ctx context.Context, address string) ([]*RiskIdentity, error) {
	return s.store.History(ctx, address)
}
