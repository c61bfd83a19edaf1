package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type StatusHandler struct {
	orch *orchestrator.Orchestrator
}

func NewStatusHandler(orch *orchestrator.Orchestrator) *StatusHandler {
	return &StatusHandler{orch: orch}
}

// ListServers returns the current health state of every known server.
func (h *StatusHandler) ListServers(c *gin.Context) {
	states := h.orch.GetAllStates()

	byStatus := make(map[string]int)
	for _, s := range states {
		byStatus[string(s.CurrentStatus)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"servers":   states,
		"count":     len(states),
		"by_status": byStatus,
	})
}

// GetServer returns one server's current health state.
func (h *StatusHandler) GetServer(c *gin.Context) {
	state, err := h.orch.GetState(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetHistory returns a server's recent status transitions, newest first.
func (h *StatusHandler) GetHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit := parseLimit(c, 100)
	changes, err := h.orch.HealthStates().ListStatusChanges(ctx, c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changes, "count": len(changes)})
}

type OverrideRequest struct {
	Status          string `json:"status" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}

// SetOverride pins a server to an administrative status, optionally expiring
// after the given duration.
func (h *StatusHandler) SetOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var duration *time.Duration
	if req.DurationMinutes != 0 {
		d := time.Duration(req.DurationMinutes) * time.Minute
		duration = &d
	}

	state, err := h.orch.SetOverride(ctx, c.Param("id"), models.ServerStatus(req.Status), req.Reason, duration)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ClearOverride reverts an administrative override.
func (h *StatusHandler) ClearOverride(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	state, err := h.orch.ClearOverride(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// parseLimit reads the limit query parameter, clamped to [1, 500].
func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
