package risk

import (
	"math"
	"sort"
)

// GraphNode is one trader (balance manager) in a pool's trade graph.
type GraphNode struct {
	ID     string  `json:"id"`
	Volume float64 `json:"volume"` // quote volume in human units
	Trades int     `json:"trades"`
	Risk   float64 `json:"risk"` // 0-1 heuristic
}

// GraphEdge is an undirected trading relationship between two traders.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Volume float64 `json:"volume"`
	Trades int     `json:"trades"`
}

// TradeGraph is a wallet interaction graph built from recent trades.
type TradeGraph struct {
	Nodes       []GraphNode `json:"nodes"`
	Edges       []GraphEdge `json:"edges"`
	TotalVolume float64     `json:"total_volume"`
	TotalTrades int         `json:"total_trades"`
}

// Node risk weighting: concentrated volume is the stronger signal, low
// trade frequency the weaker one.
const (
	graphWeightVolume    = 0.7
	graphWeightFrequency = 0.3
)

// BuildTradeGraph builds a trader interaction graph from recent trades.
// Nodes are balance manager IDs; edges aggregate trades between a maker and
// taker pair. Trades missing either counterparty or the quote quantity are
// skipped. Output slices are sorted for stable responses.
func BuildTradeGraph(trades []Trade, quoteDecimals int) TradeGraph {
	nodes := make(map[string]*GraphNode)
	edges := make(map[[2]string]*GraphEdge)

	totalTrades := 0
	for _, t := range trades {
		if t.Maker == "" || t.Taker == "" || t.QuoteQuantity <= 0 {
			continue
		}
		quoteHuman := t.QuoteQuantity / pow10(quoteDecimals)
		totalTrades++

		for _, id := range []string{t.Maker, t.Taker} {
			node, ok := nodes[id]
			if !ok {
				node = &GraphNode{ID: id}
				nodes[id] = node
			}
			node.Volume += quoteHuman
			node.Trades++
		}

		key := [2]string{t.Maker, t.Taker}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		edge, ok := edges[key]
		if !ok {
			edge = &GraphEdge{Source: key[0], Target: key[1]}
			edges[key] = edge
		}
		edge.Volume += quoteHuman
		edge.Trades++
	}

	if len(nodes) == 0 {
		return TradeGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	}

	maxVolume := 0.0
	maxTrades := 0
	for _, n := range nodes {
		maxVolume = math.Max(maxVolume, n.Volume)
		if n.Trades > maxTrades {
			maxTrades = n.Trades
		}
	}

	totalVolume := 0.0
	outNodes := make([]GraphNode, 0, len(nodes))
	for _, n := range nodes {
		volumeNorm := safeDiv(n.Volume, maxVolume, 0.0)
		freqNorm := safeDiv(float64(n.Trades), float64(maxTrades), 0.0)
		n.Risk = clamp01(graphWeightVolume*volumeNorm + graphWeightFrequency*(1-freqNorm))
		totalVolume += n.Volume
		outNodes = append(outNodes, *n)
	}
	sort.Slice(outNodes, func(i, j int) bool { return outNodes[i].ID < outNodes[j].ID })

	outEdges := make([]GraphEdge, 0, len(edges))
	for _, e := range edges {
		outEdges = append(outEdges, *e)
	}
	sort.Slice(outEdges, func(i, j int) bool {
		if outEdges[i].Source != outEdges[j].Source {
			return outEdges[i].Source < outEdges[j].Source
		}
		return outEdges[i].Target < outEdges[j].Target
	})

	return TradeGraph{
		Nodes:       outNodes,
		Edges:       outEdges,
		TotalVolume: totalVolume,
		TotalTrades: totalTrades,
	}
}
