package pools

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ekinalp/suirisk/internal/surflux"
)

// Handler provides HTTP endpoints for pool data and sync operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new pool handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up pool and sync routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/pools", h.ListPools)
	r.GET("/pools/:id/metrics/latest", h.LatestMetric)
	r.GET("/pools/:id/trade-graph", h.TradeGraph)
	r.POST("/sync/deepbook/pools", h.SyncPools)
	r.POST("/sync/deepbook/metrics", h.SyncAllMetrics)
	r.POST("/sync/deepbook/metrics/:id", h.SyncPoolMetrics)
}

// ListPools handles GET /pools
func (h *Handler) ListPools(c *gin.Context) {
	summaries, err := h.service.ListPools(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pools": summaries,
		"count": len(summaries),
	})
}

// LatestMetric handles GET /pools/:id/metrics/latest
func (h *Handler) LatestMetric(c *gin.Context) {
	id, ok := poolIDParam(c)
	if !ok {
		return
	}
	m, err := h.service.LatestMetric(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// TradeGraph handles GET /pools/:id/trade-graph
func (h *Handler) TradeGraph(c *gin.Context) {
	id, ok := poolIDParam(c)
	if !ok {
		return
	}
	limit := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	graph, err := h.service.TradeGraph(c.Request.Context(), id, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// SyncPools handles POST /sync/deepbook/pools
func (h *Handler) SyncPools(c *gin.Context) {
	result, err := h.service.SyncPools(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"total_pools_from_api": result.TotalReceived,
		"new_pools_added":      result.NewPools,
	})
}

// SyncPoolMetrics handles POST /sync/deepbook/metrics/:id
func (h *Handler) SyncPoolMetrics(c *gin.Context) {
	id, ok := poolIDParam(c)
	if !ok {
		return
	}
	m, err := h.service.SyncPoolMetrics(c.Request.Context(), id, 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"metric": m,
	})
}

// SyncAllMetrics handles POST /sync/deepbook/metrics
func (h *Handler) SyncAllMetrics(c *gin.Context) {
	outcomes, err := h.service.SyncAllMetrics(c.Request.Context(), 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"results": outcomes,
	})
}

func poolIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_pool_id",
			"message": "Pool ID must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPoolNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Pool not found",
		})
	case errors.Is(err, ErrMetricNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No metrics captured for this pool yet",
		})
	case errors.Is(err, ErrPoolUnnamed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "pool_unnamed",
			"message": "Pool has no pool_name set; re-run the pool sync",
		})
	case surflux.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "upstream_unavailable",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
