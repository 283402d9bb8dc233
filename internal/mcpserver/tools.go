package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions for the risk index MCP server.

var ToolListPools = mcp.NewTool("list_pools",
	mcp.WithDescription("List the DeepBook liquidity pools tracked by the risk index, with their trading pair symbols and database IDs."),
)

var ToolGetPoolRisk = mcp.NewTool("get_pool_risk",
	mcp.WithDescription("Get the most recent risk snapshot for a pool: TVL, 24h volume, price variance, impermanent-loss risk, utilization, and the 0-100 risk score."),
	mcp.WithString("pool_id",
		mcp.Required(),
		mcp.Description("Database ID of the pool (see list_pools)"),
	),
)

var ToolSyncPoolMetrics = mcp.NewTool("sync_pool_metrics",
	mcp.WithDescription("Fetch fresh order book and trade data for a pool from the market-data gateway, compute a new risk snapshot, and store it."),
	mcp.WithString("pool_id",
		mcp.Required(),
		mcp.Description("Database ID of the pool (see list_pools)"),
	),
)

var ToolWalletRiskScore = mcp.NewTool("wallet_risk_score",
	mcp.WithDescription("Get the deterministic risk score, tier level, and tier name for a Sui wallet address."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("Sui wallet address (0x + hex)"),
	),
)

var ToolMintPayload = mcp.NewTool("mint_payload",
	mcp.WithDescription("Build the Sui Move call payload for minting an on-chain risk identity for a wallet. Returns the package target and argument list."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("Sui wallet address to mint an identity for"),
	),
)

var ToolIdentityHistory = mcp.NewTool("identity_history",
	mcp.WithDescription("List previously recorded risk identity mints for a wallet, newest first."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("Sui wallet address"),
	),
)
