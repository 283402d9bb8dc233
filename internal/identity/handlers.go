package identity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ekinalp/suirisk/internal/risk"
	"github.com/ekinalp/suirisk/internal/validation"
)

// Handler provides HTTP endpoints for wallet risk and identity operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up risk and identity routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/risk/level-from-score", h.LevelFromScore)

	ident := r.Group("/risk/identity")
	ident.GET("/wallet-score/:address", validation.AddressParamMiddleware(), h.WalletScore)
	ident.POST("/mint-payload", h.MintPayload)
	ident.POST("/store", h.StoreIdentity)
	ident.GET("/history/:address", validation.AddressParamMiddleware(), h.History)
}

// LevelFromScore handles GET /risk/level-from-score?score=N
func (h *Handler) LevelFromScore(c *gin.Context) {
	raw := c.Query("score")
	score, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_score",
			"message": "score must be an integer",
		})
		return
	}

	clamped := risk.ClampScore(score)
	level := risk.LevelFromScore(clamped)
	c.JSON(http.StatusOK, gin.H{
		"score": clamped,
		"level": level,
		"tier":  TierName(level),
	})
}

// WalletScore handles GET /risk/identity/wallet-score/:address
func (h *Handler) WalletScore(c *gin.Context) {
	profile := h.service.WalletScore(c.Param("address"))
	c.JSON(http.StatusOK, profile)
}

// mintPayloadRequest is the body of POST /risk/identity/mint-payload.
type mintPayloadRequest struct {
	Address string `json:"address" binding:"required"`
}

// MintPayload handles POST /risk/identity/mint-payload
func (h *Handler) MintPayload(c *gin.Context) {
	var req mintPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	if !validation.IsValidSuiAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_address",
			"message": "address must be a valid Sui address (0x...)",
		})
		return
	}

	payload, profile, err := h.service.BuildMintPayload(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "not_configured",
				"message": "SUI_RISK_PACKAGE_ID is not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payload": payload,
		"score":   profile.Score,
		"level":   profile.Level,
		"tier":    profile.Tier,
	})
}

// StoreIdentity handles POST /risk/identity/store
func (h *Handler) StoreIdentity(c *gin.Context) {
	var req MintRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("wallet_address", req.Address),
		validation.ValidAddress("wallet_address", req.Address),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": errs.Error(),
		})
		return
	}
	if req.Score < 0 || req.Score > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "score must be between 0 and 100",
		})
		return
	}
	if req.TimestampMs <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "timestamp_ms must be positive",
		})
		return
	}

	rec, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"identity": rec,
	})
}

// History handles GET /risk/identity/history/:address
func (h *Handler) History(c *gin.Context) {
	recs, err := h.service.History(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":    c.Param("address"),
		"identities": recs,
		"count":      len(recs),
	})
}
