// Package mcpserver exposes the risk index API as MCP tools for LLMs.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all risk index tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("suirisk", "1.0.0")
	client := NewRiskClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolListPools, h.HandleListPools)
	s.AddTool(ToolGetPoolRisk, h.HandleGetPoolRisk)
	s.AddTool(ToolSyncPoolMetrics, h.HandleSyncPoolMetrics)
	s.AddTool(ToolWalletRiskScore, h.HandleWalletRiskScore)
	s.AddTool(ToolMintPayload, h.HandleMintPayload)
	s.AddTool(ToolIdentityHistory, h.HandleIdentityHistory)

	return s
}
