// Package risk implements the liquidity risk scoring heuristics.
//
// The pool scorer maps order-book depth, recent trade history, and spread
// statistics into a bounded 0-100 score plus a discrete level. It is pure
// computation: market data arrives through the MarketSource interface and
// nothing here touches storage or HTTP.
package risk

import (
	"context"
)

// BookLevel is one aggregated order-book price level in raw on-chain units.
type BookLevel struct {
	Price         float64
	TotalQuantity float64
}

// OrderBook is a depth snapshot, best levels first on both sides.
type OrderBook struct {
	Bids []BookLevel
	Asks []BookLevel
}

// Trade is one executed trade in raw on-chain units. Maker and Taker are
// the balance manager IDs of the two counterparties.
type Trade struct {
	Price         float64
	QuoteQuantity float64
	Maker         string
	Taker         string
}

// MarketSource supplies market data snapshots for a pool. Implementations
// wrap the upstream market data gateway.
type MarketSource interface {
	OrderBookDepth(ctx context.Context, poolName string, limit int) (OrderBook, error)
	RecentTrades(ctx context.Context, poolName string, limit int) ([]Trade, error)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// safeDiv divides, substituting def when the denominator is zero.
func safeDiv(num, den, def float64) float64 {
	if den == 0 {
		return def
	}
	return num / den
}
