package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type MessageType string

const (
	MessageTypeStatusChange MessageType = "status_change"
	MessageTypeAlert        MessageType = "alert"
	MessageTypeFleetState   MessageType = "fleet_state"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	ServerID  string      `json:"server_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewMessage(msgType MessageType, serverID string, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		ServerID:  serverID,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() []byte {
	data, _ := json.Marshal(m)
	return data
}

type StatusChangeData struct {
	OldStatus  string  `json:"old_status"`
	NewStatus  string  `json:"new_status"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

type AlertData struct {
	Parameter string  `json:"parameter"`
	Severity  string  `json:"severity"`
	State     string  `json:"state"`
	Value     float64 `json:"value"`
	Reason    string  `json:"reason"`
}

// FleetStateData is a point-in-time summary of the fleet for dashboards.
type FleetStateData struct {
	TotalServers int            `json:"total_servers"`
	ByStatus     map[string]int `json:"by_status"`
}

func BroadcastStatusChange(hub *Hub, change *models.StatusChange) {
	data := StatusChangeData{
		OldStatus:  string(change.OldStatus),
		NewStatus:  string(change.NewStatus),
		Reason:     change.Reason,
		Confidence: change.Confidence,
	}
	msg := NewMessage(MessageTypeStatusChange, change.ServerID, data)
	hub.BroadcastToServer(change.ServerID, msg.JSON())
}

func BroadcastAlert(hub *Hub, event *models.AlertEvent) {
	data := AlertData{
		Parameter: string(event.Instance.Parameter),
		Severity:  string(event.Instance.Severity),
		State:     string(event.Instance.State),
		Value:     event.Value,
		Reason:    event.Reason,
	}
	msg := NewMessage(MessageTypeAlert, event.Instance.ServerID, data)
	hub.BroadcastToServer(event.Instance.ServerID, msg.JSON())
}

func BroadcastFleetState(hub *Hub, states []*models.ServerHealthState) {
	byStatus := make(map[string]int)
	for _, s := range states {
		byStatus[string(s.CurrentStatus)]++
	}
	msg := NewMessage(MessageTypeFleetState, "", FleetStateData{
		TotalServers: len(states),
		ByStatus:     byStatus,
	})
	hub.Broadcast(msg.JSON())
}
