// internal/api/handlers/marketlist_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/forecast"
	"github.com/zeccol/marketlist/internal/marketlist"
	"github.com/zeccol/marketlist/internal/service"
)

type MarketListHandler struct {
	planner *service.Planner
}

func NewMarketListHandler(planner *service.Planner) *MarketListHandler {
	return &MarketListHandler{planner: planner}
}

type createRunRequest struct {
	Horizon       string   `json:"horizon"`
	Categories    []string `json:"categories"`
	ExcludedItems []string `json:"excluded_items"`
	MaxItems      int      `json:"max_items"`
}

// CreateRun starts a market-list build in the background and returns its run
// record.
func (h *MarketListHandler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	horizon, err := forecast.ParseHorizon(req.Horizon)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.planner.StartRun(c.Request.Context(), marketlist.Params{
		Horizon:       horizon,
		Categories:    req.Categories,
		ExcludedItems: req.ExcludedItems,
		MaxItems:      req.MaxItems,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to start market list run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "market list build started",
		"run":     run,
	})
}

// GetRun returns a run's current state, with the build summary once complete.
func (h *MarketListHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, summary, err := h.planner.GetRun(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("run_id", id).Msg("failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	resp := gin.H{"run": run}
	if summary != nil {
		resp["summary"] = summary
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns returns recent runs, newest first.
func (h *MarketListHandler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	runs, err := h.planner.ListRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []domain.PlanRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetCategories lists the distinct issuance categories.
func (h *MarketListHandler) GetCategories(c *gin.Context) {
	categories, err := h.planner.Categories(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// InvalidateForecasts drops all cached forecasts.
func (h *MarketListHandler) InvalidateForecasts(c *gin.Context) {
	if err := h.planner.InvalidateForecasts(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to invalidate forecast cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "forecast cache cleared"})
}
