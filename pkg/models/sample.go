package models

import (
	"math"
	"time"
)

// Parameter identifies one monitored metric dimension of a server.
type Parameter string

const (
	ParamCPU        Parameter = "cpu"
	ParamMemory     Parameter = "memory"
	ParamDisk       Parameter = "disk"
	ParamLatency    Parameter = "latency"
	ParamPacketLoss Parameter = "packet_loss"
	ParamLoad1      Parameter = "load1"
)

// AllParameters lists every classified parameter in evaluation order.
func AllParameters() []Parameter {
	return []Parameter{ParamCPU, ParamMemory, ParamDisk, ParamLatency, ParamPacketLoss, ParamLoad1}
}

// NetworkMetrics holds the network portion of a sample.
type NetworkMetrics struct {
	DownloadMbps  float64 `json:"download_mbps"`
	UploadMbps    float64 `json:"upload_mbps"`
	LatencyMs     float64 `json:"latency_ms"`
	PacketLossPct float64 `json:"packet_loss_pct"`
}

// LoadMetrics holds the load-average portion of a sample.
type LoadMetrics struct {
	Load1  float64 `json:"load_1m"`
	Load5  float64 `json:"load_5m"`
	Load15 float64 `json:"load_15m"`
}

// MetricSample is one metric reading pushed by the external collector.
// Immutable once recorded; timestamps are UTC.
type MetricSample struct {
	ServerID        string         `json:"server_id"`
	Timestamp       time.Time      `json:"timestamp"`
	CPUPct          float64        `json:"cpu_pct"`
	MemPct          float64        `json:"mem_pct"`
	DiskPct         float64        `json:"disk_pct"`
	Network         NetworkMetrics `json:"network"`
	Load            LoadMetrics    `json:"load"`
	ActiveProcesses int            `json:"active_processes"`
}

// ValueOf returns the sample's value for a classified parameter. The second
// return is false when the value is missing (NaN).
func (s *MetricSample) ValueOf(param Parameter) (float64, bool) {
	var v float64
	switch param {
	case ParamCPU:
		v = s.CPUPct
	case ParamMemory:
		v = s.MemPct
	case ParamDisk:
		v = s.DiskPct
	case ParamLatency:
		v = s.Network.LatencyMs
	case ParamPacketLoss:
		v = s.Network.PacketLossPct
	case ParamLoad1:
		v = s.Load.Load1
	default:
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ValidRange returns the physically valid [min, max] range used to clamp
// derived values for a parameter.
func ValidRange(param Parameter) (float64, float64) {
	switch param {
	case ParamCPU, ParamMemory, ParamDisk, ParamPacketLoss:
		return 0, 100
	case ParamLatency:
		return 0, 60000
	case ParamLoad1:
		return 0, 1024
	default:
		return 0, math.MaxFloat64
	}
}
