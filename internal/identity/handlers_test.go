package identity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTestRouter(target MoveTarget) (*gin.Engine, *Service) {
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryStore(), target)
	handler := NewHandler(svc)

	r := gin.New()
	handler.RegisterRoutes(r.Group(""))
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, reqBody any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if reqBody != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(reqBody))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHandler_LevelFromScore(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	cases := []struct {
		score string
		level float64
		tier  string
	}{
		{"0", 1, TierBronze},
		{"40", 1, TierBronze},
		{"41", 2, TierSilver},
		{"70", 2, TierSilver},
		{"71", 3, TierGold},
		{"100", 3, TierGold},
	}
	for _, tc := range cases {
		w, body := doJSON(t, router, http.MethodGet, "/risk/level-from-score?score="+tc.score, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tc.level, body["level"], "score %s", tc.score)
		assert.Equal(t, tc.tier, body["tier"], "score %s", tc.score)
	}

	// Out-of-range input is clamped, not rejected.
	w, body := doJSON(t, router, http.MethodGet, "/risk/level-from-score?score=150", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), body["score"])
	assert.Equal(t, float64(3), body["level"])

	w, body = doJSON(t, router, http.MethodGet, "/risk/level-from-score?score=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_score", body["error"])
}

func TestHandler_WalletScore(t *testing.T) {
	router, svc := setupHandlerTestRouter(testTarget)

	w, body := doJSON(t, router, http.MethodGet, "/risk/identity/wallet-score/0xabc", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	want := svc.WalletScore("0xabc")
	assert.Equal(t, float64(want.Score), body["score"])
	assert.Equal(t, float64(want.Level), body["level"])
	assert.Equal(t, want.Tier, body["tier"])
}

func TestHandler_WalletScore_BadAddress(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	w, body := doJSON(t, router, http.MethodGet, "/risk/identity/wallet-score/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_address", body["error"])
}

func TestHandler_MintPayload(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	w, body := doJSON(t, router, http.MethodPost, "/risk/identity/mint-payload",
		gin.H{"address": "0xabc"})
	assert.Equal(t, http.StatusOK, w.Code)

	payload, ok := body["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testTarget.PackageID, payload["package_id"])
	assert.Equal(t, "risk_identity", payload["module"])
	assert.Equal(t, "mint_identity", payload["function"])

	args, ok := payload["args"].([]any)
	require.True(t, ok)
	require.Len(t, args, 4)
	assert.Equal(t, "0xabc", args[0])
}

func TestHandler_MintPayload_Unconfigured(t *testing.T) {
	router, _ := setupHandlerTestRouter(MoveTarget{Module: "risk_identity", Function: "mint_identity"})

	w, body := doJSON(t, router, http.MethodPost, "/risk/identity/mint-payload",
		gin.H{"address": "0xabc"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "not_configured", body["error"])
}

func TestHandler_MintPayload_BadRequest(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	w, _ := doJSON(t, router, http.MethodPost, "/risk/identity/mint-payload", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := doJSON(t, router, http.MethodPost, "/risk/identity/mint-payload",
		gin.H{"address": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_address", body["error"])
}

func TestHandler_StoreAndHistory(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	w, body := doJSON(t, router, http.MethodPost, "/risk/identity/store", gin.H{
		"wallet_address": "0xabc",
		"score":          62,
		"level":          2,
		"timestamp_ms":   1700000000000,
		"tx_digest":      "0xd1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	ident, ok := body["identity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(62), ident["score"])

	w, body = doJSON(t, router, http.MethodGet, "/risk/identity/history/0xabc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = doJSON(t, router, http.MethodGet, "/risk/identity/history/0xdef", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestHandler_Store_MissingFields(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	w, _ := doJSON(t, router, http.MethodPost, "/risk/identity/store", gin.H{
		"wallet_address": "0xabc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Store_ZeroScore(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	// A score of 0 is in range and must be recorded, not rejected.
	w, body := doJSON(t, router, http.MethodPost, "/risk/identity/store", gin.H{
		"wallet_address": "0xabc",
		"score":          0,
		"level":          1,
		"timestamp_ms":   1700000000000,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	ident, ok := body["identity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), ident["score"])
}

func TestHandler_Store_RejectsOutOfRangeValues(t *testing.T) {
	router, _ := setupHandlerTestRouter(testTarget)

	cases := []struct {
		name string
		req  gin.H
	}{
		{"score above 100", gin.H{"wallet_address": "0xabc", "score": 101, "level": 3, "timestamp_ms": 1700000000000}},
		{"negative score", gin.H{"wallet_address": "0xabc", "score": -1, "level": 1, "timestamp_ms": 1700000000000}},
		{"zero timestamp", gin.H{"wallet_address": "0xabc", "score": 50, "level": 2, "timestamp_ms": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := doJSON(t, router, http.MethodPost, "/risk/identity/store", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
