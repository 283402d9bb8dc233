package risk

import (
	"context"
	"math"
)

// Depth and trade sampling parameters.
const (
	// DepthFetchLimit is how many levels per side to request from the gateway.
	DepthFetchLimit = 20
	// depthSumLevels is how many of those levels feed the depth sums.
	depthSumLevels = 10
	// DefaultTradesLimit is the trade sample size when the caller passes none.
	DefaultTradesLimit = 100
)

// Normalization thresholds. Each sub-risk saturates at 1.0 once its input
// crosses the threshold.
const (
	spreadMaxRisk   = 0.01      // 1% spread
	volMaxRisk      = 0.10      // 10% relative volatility
	tvlThreshold    = 100_000.0 // USD of visible depth
	volumeThreshold = 100_000.0 // USD of recent quote volume
	depthThreshold  = 10_000.0  // base asset units of visible depth
)

// Composite weights, summing to 1.0.
const (
	weightSpread    = 0.25
	weightVol       = 0.25
	weightLiquidity = 0.25
	weightVolume    = 0.15
	weightImbalance = 0.10
)

// Sentinel scores for pools with no usable order book. Absence of market
// data is itself a risk signal, so these paths return a score instead of
// an error.
const (
	ScoreBookFetchFailed = 95
	ScoreEmptyBook       = 98
)

// PoolMetrics is one computed risk snapshot for a pool.
//
// Volume24h and PriceVar24h are computed over the most recent N trades
// (N = trades limit), not a true 24-hour window; the field names follow the
// persisted schema.
type PoolMetrics struct {
	TVLUSD      float64 `json:"tvl_usd"`       // visible-depth proxy, not exact on-chain TVL
	Volume24h   float64 `json:"volume_24h"`    // quote volume over the trade sample
	PriceVar24h float64 `json:"price_var_24h"` // relative stddev of trade prices
	ILRisk      float64 `json:"il_risk"`       // volatility proxy; CLOBs have no AMM-style IL
	Utilization float64 `json:"utilization"`   // depth-based proxy
	RiskScore   int     `json:"risk_score"`    // 0-100

	// Diagnostics
	SpreadPct  float64 `json:"spread_pct"`
	Imbalance  float64 `json:"imbalance"`
	DepthTotal float64 `json:"depth_total"`

	// Error annotates degraded results (sentinel scores). Empty on a
	// fully computed snapshot.
	Error string `json:"error,omitempty"`
}

// ComputePoolRiskMetrics calculates risk metrics for a pool from its
// order-book depth and recent trades.
//
// An order-book fetch failure or an empty book is not propagated as an
// error: it yields a maximal-risk sentinel result so callers always get a
// usable score. A trade fetch failure degrades to zero-trade statistics.
func ComputePoolRiskMetrics(
	ctx context.Context,
	src MarketSource,
	poolName string,
	baseDecimals, quoteDecimals int,
	tradesLimit int,
) PoolMetrics {
	if tradesLimit <= 0 {
		tradesLimit = DefaultTradesLimit
	}

	book, err := src.OrderBookDepth(ctx, poolName, DepthFetchLimit)
	if err != nil {
		// No book at all: treat the pool as extremely risky. No trades
		// fetch is attempted on this path.
		return PoolMetrics{
			ILRisk:    1.0,
			RiskScore: ScoreBookFetchFailed,
			Error:     "order_book_error: " + err.Error(),
		}
	}

	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		// One-sided or empty book: the pool is effectively dead.
		return PoolMetrics{
			ILRisk:    1.0,
			RiskScore: ScoreEmptyBook,
			Error:     "empty_orderbook",
		}
	}

	bestBid := book.Bids[0].Price
	bestAsk := book.Asks[0].Price
	midRaw := (bestBid + bestAsk) / 2.0

	spreadPct := safeDiv(bestAsk-bestBid, midRaw, 1.0)

	// Raw price / 10^quote_decimals approximates the quote-asset price.
	// The exact DeepBook formula also involves base decimals, but the
	// ratio-based sub-risks below only need a consistent scale.
	midPriceHuman := midRaw / pow10(quoteDecimals)

	depthBids := sumDepth(book.Bids, baseDecimals)
	depthAsks := sumDepth(book.Asks, baseDecimals)
	depthTotal := depthBids + depthAsks

	// Visible depth priced at mid. A proxy for TVL, not the real thing.
	tvlUSDEstimate := depthTotal * midPriceHuman

	// 0.5 = balanced, 0 or 1 = one-sided.
	imbalance := 0.5
	if depthTotal > 0 {
		imbalance = depthBids / depthTotal
	}

	trades, err := src.RecentTrades(ctx, poolName, tradesLimit)
	if err != nil {
		trades = nil
	}

	prices := make([]float64, 0, len(trades))
	volume := 0.0
	for _, t := range trades {
		prices = append(prices, t.Price/pow10(quoteDecimals))
		volume += t.QuoteQuantity / pow10(quoteDecimals)
	}

	priceVar := 0.0
	if len(prices) >= 2 {
		mean := 0.0
		for _, p := range prices {
			mean += p
		}
		mean /= float64(len(prices))

		variance := 0.0
		for _, p := range prices {
			variance += (p - mean) * (p - mean)
		}
		variance /= float64(len(prices) - 1)

		priceVar = safeDiv(math.Sqrt(variance), mean, 0.0)
	}

	spreadRisk := clamp01(spreadPct / spreadMaxRisk)
	volRisk := clamp01(priceVar / volMaxRisk)
	liquidityRisk := 1.0 - clamp01(safeDiv(tvlUSDEstimate, tvlThreshold, 0.0))
	volumeRisk := 1.0 - clamp01(safeDiv(volume, volumeThreshold, 0.0))
	imbalanceRisk := clamp01(math.Abs(imbalance-0.5) * 2.0)

	composite := weightSpread*spreadRisk +
		weightVol*volRisk +
		weightLiquidity*liquidityRisk +
		weightVolume*volumeRisk +
		weightImbalance*imbalanceRisk

	return PoolMetrics{
		TVLUSD:      tvlUSDEstimate,
		Volume24h:   volume,
		PriceVar24h: priceVar,
		ILRisk:      clamp01(volRisk),
		Utilization: clamp01(safeDiv(depthTotal, depthThreshold, 0.0)),
		RiskScore:   int(math.Round(clamp01(composite) * 100)),
		SpreadPct:   spreadPct,
		Imbalance:   imbalance,
		DepthTotal:  depthTotal,
	}
}

// sumDepth totals the first depthSumLevels levels and scales to human units.
func sumDepth(levels []BookLevel, baseDecimals int) float64 {
	n := len(levels)
	if n > depthSumLevels {
		n = depthSumLevels
	}
	total := 0.0
	for _, l := range levels[:n] {
		total += l.TotalQuantity
	}
	return total / pow10(baseDecimals)
}

func pow10(exp int) float64 {
	return math.Pow(10, float64(exp))
}
