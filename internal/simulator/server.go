package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type ServerConfig struct {
	BaseCPU  float64
	BaseMem  float64
	BaseDisk float64
	Variance float64
	Pattern  Pattern
}

// ServerSim generates a plausible metric stream for one simulated server.
// Memory tracks CPU at 60%, latency and packet loss degrade as CPU climbs,
// disk creeps upward slowly.
type ServerSim struct {
	id       string
	baseCPU  float64
	baseMem  float64
	baseDisk float64
	variance float64
	pattern  Pattern
	spike    *spike
	started  time.Time
	mu       sync.Mutex
}

type spike struct {
	targetCPU   float64
	startTime   time.Time
	duration    time.Duration
	rampUp      time.Duration
	originalCPU float64
}

const memCorrelation = 0.6

func NewServerSim(id string, cfg ServerConfig) *ServerSim {
	if cfg.BaseCPU <= 0 {
		cfg.BaseCPU = 50
	}
	if cfg.BaseMem <= 0 {
		cfg.BaseMem = 60
	}
	if cfg.BaseDisk <= 0 {
		cfg.BaseDisk = 40
	}
	if cfg.Variance <= 0 {
		cfg.Variance = 10
	}
	if cfg.Pattern == nil {
		cfg.Pattern = PatternSteady
	}

	return &ServerSim{
		id:       id,
		baseCPU:  cfg.BaseCPU,
		baseMem:  cfg.BaseMem,
		baseDisk: cfg.BaseDisk,
		variance: cfg.Variance,
		pattern:  cfg.Pattern,
		started:  time.Now(),
	}
}

func (s *ServerSim) ID() string {
	return s.id
}

func (s *ServerSim) SetPattern(p Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = p
}

// InjectSpike ramps CPU toward target over rampUp, holds it for the rest of
// duration, then reverts.
func (s *ServerSim) InjectSpike(targetCPU float64, duration, rampUp time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spike = &spike{
		targetCPU:   targetCPU,
		startTime:   time.Now(),
		duration:    duration,
		rampUp:      rampUp,
		originalCPU: s.baseCPU,
	}
}

// Sample produces one metric sample for the given instant.
func (s *ServerSim) Sample(at time.Time) *models.MetricSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpu := s.currentCPU(at)
	mem := s.currentMem(cpu)
	disk := s.currentDisk(at)

	cpuJittered := clampPct(jitter(cpu, s.variance))
	load1 := cpuJittered / 100 * 8
	stress := math.Max(0, cpuJittered-80) / 20

	return &models.MetricSample{
		ServerID:  s.id,
		Timestamp: at.UTC(),
		CPUPct:    cpuJittered,
		MemPct:    clampPct(jitter(mem, s.variance/2)),
		DiskPct:   clampPct(jitter(disk, 1)),
		Network: models.NetworkMetrics{
			DownloadMbps:  math.Max(1, jitter(500*(1-stress*0.5), 50)),
			UploadMbps:    math.Max(1, jitter(200*(1-stress*0.5), 25)),
			LatencyMs:     math.Max(1, jitter(20+stress*600, 10)),
			PacketLossPct: math.Max(0, jitter(stress*6, 0.5)),
		},
		Load: models.LoadMetrics{
			Load1:  round2(load1),
			Load5:  round2(load1 * 0.9),
			Load15: round2(load1 * 0.8),
		},
		ActiveProcesses: 120 + rand.Intn(80),
	}
}

func (s *ServerSim) currentCPU(at time.Time) float64 {
	cpu := s.pattern.Apply(s.baseCPU, at)

	if s.spike != nil {
		elapsed := at.Sub(s.spike.startTime)
		switch {
		case elapsed > s.spike.duration:
			s.spike = nil
		case elapsed < s.spike.rampUp:
			progress := float64(elapsed) / float64(s.spike.rampUp)
			cpu = s.spike.originalCPU + (s.spike.targetCPU-s.spike.originalCPU)*progress
		default:
			cpu = s.spike.targetCPU
		}
	}

	return cpu
}

func (s *ServerSim) currentMem(cpu float64) float64 {
	mem := s.baseMem + (cpu-s.baseCPU)*memCorrelation
	if mem < 10 {
		mem = 10
	}
	return clampPct(mem)
}

// currentDisk grows 0.1% per hour of simulated uptime.
func (s *ServerSim) currentDisk(at time.Time) float64 {
	hours := at.Sub(s.started).Hours()
	if hours < 0 {
		hours = 0
	}
	return clampPct(s.baseDisk + hours*0.1)
}

func jitter(base, variance float64) float64 {
	value := base + (rand.Float64()*2-1)*variance
	if value < 0 {
		value = 0
	}
	return round2(value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
