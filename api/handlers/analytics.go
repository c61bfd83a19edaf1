package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/internal/scheduler"
)

type AnalyticsHandler struct {
	orch  *orchestrator.Orchestrator
	sched *scheduler.Scheduler
}

func NewAnalyticsHandler(orch *orchestrator.Orchestrator, sched *scheduler.Scheduler) *AnalyticsHandler {
	return &AnalyticsHandler{orch: orch, sched: sched}
}

// GetAggregates returns a server's daily aggregates for a date range. Dates
// are YYYY-MM-DD; the range defaults to the last 7 days.
func (h *AnalyticsHandler) GetAggregates(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := parseDate(c.Query("from"), now.AddDate(0, 0, -7))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := parseDate(c.Query("to"), now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
		return
	}

	aggregates, err := h.orch.Aggregates().GetRange(ctx, c.Param("id"), from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"aggregates": aggregates, "count": len(aggregates)})
}

type RebuildAggregateRequest struct {
	Date string `json:"date" binding:"required"`
}

// RebuildAggregate recomputes one server-day from raw samples.
func (h *AnalyticsHandler) RebuildAggregate(c *gin.Context) {
	var req RebuildAggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	agg, err := h.sched.RebuildAggregation(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, agg)
}

// GetBaseline returns a server's most recent baseline.
func (h *AnalyticsHandler) GetBaseline(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	baseline, err := h.orch.Baselines().GetLatest(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if baseline == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no baseline computed yet"})
		return
	}

	c.JSON(http.StatusOK, baseline)
}

// RebuildBaseline recomputes a server's baseline from the configured window.
func (h *AnalyticsHandler) RebuildBaseline(c *gin.Context) {
	baseline, err := h.sched.RebuildBaseline(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, baseline)
}

// GetTrend returns a server's most recent trend analysis.
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	trend, err := h.orch.Trends().GetLatest(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if trend == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no trend analysis computed yet"})
		return
	}

	c.JSON(http.StatusOK, trend)
}

// RebuildTrend recomputes a server's trend analysis on demand.
func (h *AnalyticsHandler) RebuildTrend(c *gin.Context) {
	trend, err := h.sched.RebuildTrend(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
