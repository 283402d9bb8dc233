package pools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekinalp/suirisk/internal/surflux"
)

func setupHandlerTestRouter(market *stubMarket) (*gin.Engine, *Service) {
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryStore(), market)
	handler := NewHandler(svc)

	r := gin.New()
	handler.RegisterRoutes(r.Group(""))
	return r, svc
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHandler_ListPools(t *testing.T) {
	market := &stubMarket{pools: []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")}}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, body := doRequest(t, router, http.MethodGet, "/pools")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestHandler_SyncPools(t *testing.T) {
	market := &stubMarket{pools: []surflux.PoolInfo{
		listing("0xpool1", "SUI_USDC"),
		listing("0xpool2", "NS_USDC"),
	}}
	router, _ := setupHandlerTestRouter(market)

	w, body := doRequest(t, router, http.MethodPost, "/sync/deepbook/pools")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["total_pools_from_api"])
	assert.Equal(t, float64(2), body["new_pools_added"])
}

func TestHandler_SyncPools_UpstreamDown(t *testing.T) {
	market := &stubMarket{poolsErr: &surflux.APIError{Endpoint: "get_pools", StatusCode: 502}}
	router, _ := setupHandlerTestRouter(market)

	w, body := doRequest(t, router, http.MethodPost, "/sync/deepbook/pools")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream_unavailable", body["error"])
}

func TestHandler_LatestMetric_NotFound(t *testing.T) {
	market := &stubMarket{pools: []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")}}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, body := doRequest(t, router, http.MethodGet, "/pools/3/metrics/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestHandler_LatestMetric_UnknownPool(t *testing.T) {
	router, _ := setupHandlerTestRouter(&stubMarket{})

	w, _ := doRequest(t, router, http.MethodGet, "/pools/99/metrics/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_LatestMetric_BadID(t *testing.T) {
	router, _ := setupHandlerTestRouter(&stubMarket{})

	w, body := doRequest(t, router, http.MethodGet, "/pools/abc/metrics/latest")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_pool_id", body["error"])
}

func TestHandler_SyncPoolMetrics(t *testing.T) {
	market := &stubMarket{
		pools: []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")},
		book: &surflux.OrderBook{
			Bids: []surflux.PriceLevel{{Price: 990_000, TotalQuantity: 1_000_000_000}},
			Asks: []surflux.PriceLevel{{Price: 1_010_000, TotalQuantity: 1_000_000_000}},
		},
	}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, body := doRequest(t, router, http.MethodPost, "/sync/deepbook/metrics/3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	metric, ok := body["metric"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, metric, "risk_score")

	// The snapshot is now retrievable.
	w, _ = doRequest(t, router, http.MethodGet, "/pools/3/metrics/latest")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_SyncAllMetrics(t *testing.T) {
	market := &stubMarket{
		pools: []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")},
		book: &surflux.OrderBook{
			Bids: []surflux.PriceLevel{{Price: 990_000, TotalQuantity: 1_000_000_000}},
			Asks: []surflux.PriceLevel{{Price: 1_010_000, TotalQuantity: 1_000_000_000}},
		},
	}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, body := doRequest(t, router, http.MethodPost, "/sync/deepbook/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 1)
}

func TestHandler_TradeGraph(t *testing.T) {
	market := &stubMarket{
		pools: []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")},
		trades: []surflux.Trade{
			{QuoteQuantity: 1_000_000, MakerBalanceManagerID: "0xa", TakerBalanceManagerID: "0xb"},
		},
	}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, body := doRequest(t, router, http.MethodGet, "/pools/3/trade-graph?limit=50")
	assert.Equal(t, http.StatusOK, w.Code)
	nodes, ok := body["nodes"].([]any)
	require.True(t, ok)
	assert.Len(t, nodes, 2)
}

func TestHandler_TradeGraph_UpstreamDown(t *testing.T) {
	market := &stubMarket{
		pools:     []surflux.PoolInfo{listing("0xpool1", "SUI_USDC")},
		tradesErr: surflux.ErrCircuitOpen,
	}
	router, svc := setupHandlerTestRouter(market)
	_, err := svc.SyncPools(context.Background())
	require.NoError(t, err)

	w, _ := doRequest(t, router, http.MethodGet, "/pools/3/trade-graph")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
