package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/resilience"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type FleetConfig struct {
	Servers  int
	BaseCPU  float64
	BaseMem  float64
	Variance float64
	Pattern  Pattern
}

// Fleet is a set of simulated servers producing one sample each per tick.
type Fleet struct {
	servers []*ServerSim
	mu      sync.RWMutex
}

func NewFleet(cfg FleetConfig) *Fleet {
	if cfg.Servers <= 0 {
		cfg.Servers = 3
	}

	f := &Fleet{servers: make([]*ServerSim, 0, cfg.Servers)}
	for i := 0; i < cfg.Servers; i++ {
		f.servers = append(f.servers, NewServerSim(
			fmt.Sprintf("sim-%02d", i+1),
			ServerConfig{
				BaseCPU:  cfg.BaseCPU,
				BaseMem:  cfg.BaseMem,
				Variance: cfg.Variance,
				Pattern:  cfg.Pattern,
			},
		))
	}
	return f
}

func (f *Fleet) Tick(at time.Time) []*models.MetricSample {
	f.mu.RLock()
	defer f.mu.RUnlock()

	samples := make([]*models.MetricSample, 0, len(f.servers))
	for _, srv := range f.servers {
		samples = append(samples, srv.Sample(at))
	}
	return samples
}

func (f *Fleet) Servers() []*ServerSim {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*ServerSim(nil), f.servers...)
}

func (f *Fleet) Server(id string) (*ServerSim, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, srv := range f.servers {
		if srv.ID() == id {
			return srv, true
		}
	}
	return nil, false
}

// Sender pushes batches to the monitor's ingest endpoint. A circuit breaker
// backs off while the monitor is unreachable instead of hammering it every
// tick.
type Sender struct {
	targetURL string
	client    *http.Client
	breaker   *resilience.CircuitBreaker
}

func NewSender(targetURL string) *Sender {
	return &Sender{
		targetURL: targetURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "ingest",
			MaxFailures: 3,
			Cooldown:    15 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warnf("Circuit %s: %s -> %s", name, from, to)
			},
		}),
	}
}

type wireSample struct {
	ServerID        string    `json:"server_id"`
	Timestamp       time.Time `json:"timestamp"`
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

func toWire(s *models.MetricSample) wireSample {
	return wireSample{
		ServerID:        s.ServerID,
		Timestamp:       s.Timestamp,
		CPUPct:          s.CPUPct,
		MemPct:          s.MemPct,
		DiskPct:         s.DiskPct,
		DownloadMbps:    s.Network.DownloadMbps,
		UploadMbps:      s.Network.UploadMbps,
		LatencyMs:       s.Network.LatencyMs,
		PacketLossPct:   s.Network.PacketLossPct,
		Load1:           s.Load.Load1,
		Load5:           s.Load.Load5,
		Load15:          s.Load.Load15,
		ActiveProcesses: s.ActiveProcesses,
	}
}

func (s *Sender) Send(ctx context.Context, samples []*models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := make([]wireSample, 0, len(samples))
	for _, sample := range samples {
		batch = append(batch, toWire(sample))
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	return s.breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.targetURL+"/samples/batch", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("ingest returned %d", resp.StatusCode)
		}
		return nil
	})
}

// Run pushes one batch per interval until the context is cancelled.
func Run(ctx context.Context, fleet *Fleet, sender *Sender, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			samples := fleet.Tick(now)
			if err := sender.Send(ctx, samples); err != nil {
				if err == resilience.ErrCircuitOpen {
					logger.Debug("Skipping push, circuit open")
					continue
				}
				logger.Errorf("Failed to push %d samples: %v", len(samples), err)
				continue
			}
			logger.Debugf("Pushed %d samples", len(samples))
		}
	}
}
