package metrics

import (
	"net/http"
	"strconv"
	"sync"
)

// Metrics holds the monitor's operational counters and gauges, exported in
// Prometheus text format from /metrics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	samplesTotal     int64
	statusChanges    map[string]int64            // new status -> count
	alertEventsTotal map[string]int64            // event type -> count
	tasksTotal       map[string]map[string]int64 // task -> outcome -> count

	// Gauges
	serversByStatus map[string]int
	wsClients       int
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			statusChanges:    make(map[string]int64),
			alertEventsTotal: make(map[string]int64),
			tasksTotal:       make(map[string]map[string]int64),
			serversByStatus:  make(map[string]int),
		}
	})
	return instance
}

func (m *Metrics) IncSamples() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samplesTotal++
}

func (m *Metrics) IncStatusChange(newStatus string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanges[newStatus]++
}

func (m *Metrics) IncAlertEvent(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertEventsTotal[eventType]++
}

func (m *Metrics) IncTask(task, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasksTotal[task] == nil {
		m.tasksTotal[task] = make(map[string]int64)
	}
	m.tasksTotal[task][outcome]++
}

// SetFleetState replaces the by-status server gauge wholesale.
func (m *Metrics) SetFleetState(byStatus map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serversByStatus = byStatus
}

func (m *Metrics) SetWSClients(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wsClients = count
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		writeMetric(w, "fleethealth_samples_total", nil, float64(m.samplesTotal))

		for status, count := range m.statusChanges {
			writeMetric(w, "fleethealth_status_changes_total", map[string]string{"status": status}, float64(count))
		}

		for eventType, count := range m.alertEventsTotal {
			writeMetric(w, "fleethealth_alert_events_total", map[string]string{"type": eventType}, float64(count))
		}

		for task, outcomes := range m.tasksTotal {
			for outcome, count := range outcomes {
				writeMetric(w, "fleethealth_tasks_total", map[string]string{"task": task, "outcome": outcome}, float64(count))
			}
		}

		for status, count := range m.serversByStatus {
			writeMetric(w, "fleethealth_servers", map[string]string{"status": status}, float64(count))
		}

		writeMetric(w, "fleethealth_websocket_clients", nil, float64(m.wsClients))
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}
