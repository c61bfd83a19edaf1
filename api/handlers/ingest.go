package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type IngestHandler struct {
	orch *orchestrator.Orchestrator
}

func NewIngestHandler(orch *orchestrator.Orchestrator) *IngestHandler {
	return &IngestHandler{orch: orch}
}

type SampleRequest struct {
	ServerID        string    `json:"server_id" binding:"required"`
	Timestamp       time.Time `json:"timestamp" binding:"required"`
	CPUPct          float64   `json:"cpu_pct"`
	MemPct          float64   `json:"mem_pct"`
	DiskPct         float64   `json:"disk_pct"`
	DownloadMbps    float64   `json:"download_mbps"`
	UploadMbps      float64   `json:"upload_mbps"`
	LatencyMs       float64   `json:"latency_ms"`
	PacketLossPct   float64   `json:"packet_loss_pct"`
	Load1           float64   `json:"load_1m"`
	Load5           float64   `json:"load_5m"`
	Load15          float64   `json:"load_15m"`
	ActiveProcesses int       `json:"active_processes"`
}

func (r *SampleRequest) toModel() *models.MetricSample {
	return &models.MetricSample{
		ServerID:  r.ServerID,
		Timestamp: r.Timestamp.UTC(),
		CPUPct:    r.CPUPct,
		MemPct:    r.MemPct,
		DiskPct:   r.DiskPct,
		Network: models.NetworkMetrics{
			DownloadMbps:  r.DownloadMbps,
			UploadMbps:    r.UploadMbps,
			LatencyMs:     r.LatencyMs,
			PacketLossPct: r.PacketLossPct,
		},
		Load: models.LoadMetrics{
			Load1:  r.Load1,
			Load5:  r.Load5,
			Load15: r.Load15,
		},
		ActiveProcesses: r.ActiveProcesses,
	}
}

// Push ingests one sample and returns the classification it produced.
func (h *IngestHandler) Push(c *gin.Context) {
	var req SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	classification, err := h.orch.PushSample(ctx, req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, classification)
}

// PushBatch ingests several samples in arrival order. Processing stops at the
// first failure and reports how many were accepted.
func (h *IngestHandler) PushBatch(c *gin.Context) {
	var reqs []SampleRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	for i := range reqs {
		if _, err := h.orch.PushSample(ctx, reqs[i].toModel()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    err.Error(),
				"accepted": i,
				"total":    len(reqs),
			})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(reqs), "total": len(reqs)})
}
