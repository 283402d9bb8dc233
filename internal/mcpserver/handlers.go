package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers implements the MCP tool handlers.
type Handlers struct {
	client *RiskClient
}

// NewHandlers creates handlers backed by the given API client.
func NewHandlers(client *RiskClient) *Handlers {
	return &Handlers{client: client}
}

type poolSummary struct {
	ID          int64  `json:"id"`
	SuiPoolID   string `json:"sui_pool_id"`
	PoolName    string `json:"pool_name"`
	DexName     string `json:"dex_name"`
	BaseSymbol  string `json:"base_symbol"`
	QuoteSymbol string `json:"quote_symbol"`
}

type metricView struct {
	PoolID      int64   `json:"pool_id"`
	TVLUSD      float64 `json:"tvl_usd"`
	Volume24h   float64 `json:"volume_24h"`
	PriceVar24h float64 `json:"price_variance_24h"`
	ILRisk      float64 `json:"il_risk"`
	Utilization float64 `json:"utilization"`
	RiskScore   int     `json:"risk_score"`
	CapturedAt  string  `json:"captured_at"`
}

type walletRiskView struct {
	Address string `json:"address"`
	Score   int    `json:"score"`
	Level   int    `json:"level"`
	Tier    string `json:"tier"`
}

// HandleListPools handles the list_pools tool.
func (h *Handlers) HandleListPools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ListPools(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list pools: %v", err)), nil
	}

	var pools []poolSummary
	if err := json.Unmarshal(raw, &pools); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	if len(pools) == 0 {
		return mcp.NewToolResultText("No pools tracked yet. Run a pool sync against the API first."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tracked pools (%d):\n\n", len(pools))
	for _, p := range pools {
		name := p.PoolName
		if name == "" {
			name = p.BaseSymbol + "/" + p.QuoteSymbol
		}
		fmt.Fprintf(&sb, "  [%d] %s (%s) — %s\n", p.ID, name, p.DexName, p.SuiPoolID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetPoolRisk handles the get_pool_risk tool.
func (h *Handlers) HandleGetPoolRisk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	poolID, errResult := poolIDArg(req)
	if errResult != nil {
		return errResult, nil
	}

	raw, err := h.client.GetLatestMetric(ctx, poolID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get pool risk: %v", err)), nil
	}

	var m metricView
	if err := json.Unmarshal(raw, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMetric(&m)), nil
}

// HandleSyncPoolMetrics handles the sync_pool_metrics tool.
func (h *Handlers) HandleSyncPoolMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	poolID, errResult := poolIDArg(req)
	if errResult != nil {
		return errResult, nil
	}

	raw, err := h.client.SyncPoolMetrics(ctx, poolID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to sync pool metrics: %v", err)), nil
	}

	var m metricView
	if err := json.Unmarshal(raw, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	return mcp.NewToolResultText("Snapshot captured.\n\n" + formatMetric(&m)), nil
}

// HandleWalletRiskScore handles the wallet_risk_score tool.
func (h *Handlers) HandleWalletRiskScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}

	raw, err := h.client.GetWalletScore(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get wallet score: %v", err)), nil
	}

	var w walletRiskView
	if err := json.Unmarshal(raw, &w); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Wallet: %s\nRisk score: %d/100\nTier: %s (level %d)",
		w.Address, w.Score, w.Tier, w.Level,
	)), nil
}

// HandleMintPayload handles the mint_payload tool.
func (h *Handlers) HandleMintPayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}

	raw, err := h.client.GetMintPayload(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build mint payload: %v", err)), nil
	}

	var resp struct {
		Payload struct {
			PackageID string   `json:"package_id"`
			Module    string   `json:"module"`
			Function  string   `json:"function"`
			Args      []string `json:"args"`
		} `json:"payload"`
		Score int    `json:"score"`
		Level int    `json:"level"`
		Tier  string `json:"tier"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Mint payload for %s (score %d, %s tier):\n\n", address, resp.Score, resp.Tier)
	fmt.Fprintf(&sb, "  Target: %s::%s::%s\n", resp.Payload.PackageID, resp.Payload.Module, resp.Payload.Function)
	fmt.Fprintf(&sb, "  Args:   [%s]\n", strings.Join(resp.Payload.Args, ", "))
	sb.WriteString("\nSign and execute this Move call with the wallet, then record the tx digest via the API.")
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleIdentityHistory handles the identity_history tool.
func (h *Handlers) HandleIdentityHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}

	raw, err := h.client.GetIdentityHistory(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get identity history: %v", err)), nil
	}

	var resp struct {
		Address    string `json:"address"`
		Identities []struct {
			Score       int    `json:"score"`
			Level       int    `json:"level"`
			TimestampMs int64  `json:"timestamp_ms"`
			TxDigest    string `json:"tx_digest,omitempty"`
			CreatedAt   string `json:"created_at"`
		} `json:"identities"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	if resp.Count == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No risk identities recorded for %s.", address)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Risk identities for %s (%d, newest first):\n\n", resp.Address, resp.Count)
	for _, id := range resp.Identities {
		fmt.Fprintf(&sb, "  score %d (level %d) at %s", id.Score, id.Level, id.CreatedAt)
		if id.TxDigest != "" {
			fmt.Fprintf(&sb, " tx=%s", id.TxDigest)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func poolIDArg(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	s := req.GetString("pool_id", "")
	if s == "" {
		return 0, mcp.NewToolResultError("pool_id is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, mcp.NewToolResultError("pool_id must be a positive integer")
	}
	return id, nil
}

func formatMetric(m *metricView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pool %d risk snapshot (%s):\n\n", m.PoolID, m.CapturedAt)
	fmt.Fprintf(&sb, "  Risk score:     %d/100\n", m.RiskScore)
	fmt.Fprintf(&sb, "  TVL:            $%.2f\n", m.TVLUSD)
	fmt.Fprintf(&sb, "  24h volume:     $%.2f\n", m.Volume24h)
	fmt.Fprintf(&sb, "  Price variance: %.6f\n", m.PriceVar24h)
	fmt.Fprintf(&sb, "  IL risk:        %.4f\n", m.ILRisk)
	fmt.Fprintf(&sb, "  Utilization:    %.4f\n", m.Utilization)
	return sb.String()
}
