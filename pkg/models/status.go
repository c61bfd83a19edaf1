package models

import "time"

type ServerStatus string

const (
	StatusHealthy     ServerStatus = "HEALTHY"
	StatusWarning     ServerStatus = "WARNING"
	StatusCritical    ServerStatus = "CRITICAL"
	StatusDanger      ServerStatus = "DANGER"
	StatusOffline     ServerStatus = "OFFLINE"
	StatusMaintenance ServerStatus = "MAINTENANCE"
)

// statusRank orders statuses from best to worst. OFFLINE ranks above DANGER
// because it means no data at all; MAINTENANCE is administrative and never
// compared.
var statusRank = map[ServerStatus]int{
	StatusHealthy:  0,
	StatusWarning:  1,
	StatusCritical: 2,
	StatusDanger:   3,
	StatusOffline:  4,
}

// Rank returns the severity rank of a status (higher is worse).
func (s ServerStatus) Rank() int {
	return statusRank[s]
}

// WorseThan reports whether s is a worse status than other.
func (s ServerStatus) WorseThan(other ServerStatus) bool {
	return statusRank[s] > statusRank[other]
}

func (s ServerStatus) IsValid() bool {
	switch s {
	case StatusHealthy, StatusWarning, StatusCritical, StatusDanger, StatusOffline, StatusMaintenance:
		return true
	}
	return false
}

type ConditionLevel string

const (
	LevelNormal   ConditionLevel = "normal"
	LevelWarning  ConditionLevel = "warning"
	LevelCritical ConditionLevel = "critical"
	LevelDanger   ConditionLevel = "danger"
	LevelUnknown  ConditionLevel = "unknown"
)

var levelRank = map[ConditionLevel]int{
	LevelNormal:   0,
	LevelUnknown:  1,
	LevelWarning:  2,
	LevelCritical: 3,
	LevelDanger:   4,
}

// Rank returns the severity rank of a condition level (higher is worse).
func (l ConditionLevel) Rank() int {
	return levelRank[l]
}

// Classification is the output of the status classifier for one sample.
type Classification struct {
	ServerID      string                       `json:"server_id"`
	Timestamp     time.Time                    `json:"timestamp"`
	Levels        map[Parameter]ConditionLevel `json:"levels"`
	Status        ServerStatus                 `json:"status"`
	WeightedScore float64                      `json:"weighted_score"`
}

// StatusSample is one classified status observation kept in the hysteresis
// ring buffer.
type StatusSample struct {
	Status    ServerStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// StatusRing is a bounded ring buffer of recent status samples. Oldest
// entries are evicted once capacity is reached. Not safe for concurrent use;
// callers hold the per-server lock.
type StatusRing struct {
	samples []StatusSample
	cap     int
}

func NewStatusRing(capacity int) *StatusRing {
	if capacity <= 0 {
		capacity = 10
	}
	return &StatusRing{cap: capacity}
}

func (r *StatusRing) Push(s StatusSample) {
	r.samples = append(r.samples, s)
	if len(r.samples) > r.cap {
		r.samples = r.samples[len(r.samples)-r.cap:]
	}
}

func (r *StatusRing) Len() int {
	return len(r.samples)
}

func (r *StatusRing) Capacity() int {
	return r.cap
}

// Recent returns up to n most recent samples, newest last.
func (r *StatusRing) Recent(n int) []StatusSample {
	if n <= 0 || len(r.samples) == 0 {
		return nil
	}
	if n > len(r.samples) {
		n = len(r.samples)
	}
	out := make([]StatusSample, n)
	copy(out, r.samples[len(r.samples)-n:])
	return out
}

// CountAgreeing reports how many of the n most recent samples carry the
// given status.
func (r *StatusRing) CountAgreeing(status ServerStatus, n int) int {
	count := 0
	for _, s := range r.Recent(n) {
		if s.Status == status {
			count++
		}
	}
	return count
}

// StatusOverride is an administrative status pin set via Override.
type StatusOverride struct {
	Status    ServerStatus `json:"status"`
	Reason    string       `json:"reason"`
	SetAt     time.Time    `json:"set_at"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// Active reports whether the override is still in effect at the given time.
func (o *StatusOverride) Active(now time.Time) bool {
	if o == nil {
		return false
	}
	return o.ExpiresAt == nil || now.Before(*o.ExpiresAt)
}

// ServerHealthState is the persisted health state of one server. Mutated
// exclusively by the hysteresis state machine under the per-server lock.
type ServerHealthState struct {
	ServerID           string          `json:"server_id"`
	CurrentStatus      ServerStatus    `json:"current_status"`
	LastStatusChangeAt time.Time       `json:"last_status_change_at"`
	LastSampleAt       time.Time       `json:"last_sample_at"`
	Confidence         float64         `json:"confidence"`
	Recent             *StatusRing     `json:"-"`
	Override           *StatusOverride `json:"override,omitempty"`
}

func NewServerHealthState(serverID string, ringCapacity int, now time.Time) *ServerHealthState {
	return &ServerHealthState{
		ServerID:           serverID,
		CurrentStatus:      StatusHealthy,
		LastStatusChangeAt: now,
		Confidence:         0,
		Recent:             NewStatusRing(ringCapacity),
	}
}

// StatusChange records one accepted status transition.
type StatusChange struct {
	ID         int          `json:"id,omitempty"`
	ServerID   string       `json:"server_id"`
	OldStatus  ServerStatus `json:"old_status"`
	NewStatus  ServerStatus `json:"new_status"`
	Reason     string       `json:"reason"`
	Confidence float64      `json:"confidence"`
	Timestamp  time.Time    `json:"timestamp"`
}
