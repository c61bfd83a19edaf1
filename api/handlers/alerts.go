package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type AlertHandler struct {
	orch *orchestrator.Orchestrator
}

func NewAlertHandler(orch *orchestrator.Orchestrator) *AlertHandler {
	return &AlertHandler{orch: orch}
}

type ConditionRequest struct {
	ServerID  *string               `json:"server_id"`
	Parameter string                `json:"parameter" binding:"required"`
	Warning   models.ThresholdRule  `json:"warning" binding:"required"`
	Critical  models.ThresholdRule  `json:"critical" binding:"required"`
	Recovery  models.ThresholdRule  `json:"recovery" binding:"required"`
	AntiSpam  models.AntiSpamPolicy `json:"anti_spam"`
	Enabled   *bool                 `json:"enabled"`
}

func (r *ConditionRequest) toModel(id string) *models.AlertConditionConfig {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return &models.AlertConditionConfig{
		ID:        id,
		ServerID:  r.ServerID,
		Parameter: models.Parameter(r.Parameter),
		Warning:   r.Warning,
		Critical:  r.Critical,
		Recovery:  r.Recovery,
		AntiSpam:  r.AntiSpam,
		Enabled:   enabled,
	}
}

// ListConditions returns every configured alert condition.
func (h *AlertHandler) ListConditions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	conditions, err := h.orch.Conditions().GetAll(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conditions": conditions, "count": len(conditions)})
}

// CreateCondition validates and stores a new alert condition.
func (h *AlertHandler) CreateCondition(c *gin.Context) {
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cond := req.toModel("")
	if err := h.orch.CreateCondition(ctx, cond); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cond)
}

// UpdateCondition replaces an existing alert condition.
func (h *AlertHandler) UpdateCondition(c *gin.Context) {
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cond := req.toModel(c.Param("id"))
	if err := h.orch.UpdateCondition(ctx, cond); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cond)
}

func (h *AlertHandler) DeleteCondition(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.orch.DeleteCondition(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "condition deleted"})
}

// GetActiveAlerts returns a server's unresolved alert instances.
func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	instances, err := h.orch.AlertInstances().GetActive(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": instances, "count": len(instances)})
}

// GetAlertEvents returns a server's alert event log, newest first.
func (h *AlertHandler) GetAlertEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit := parseLimit(c, 100)
	events, err := h.orch.AlertInstances().ListEvents(ctx, c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
