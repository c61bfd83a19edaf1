package websocket

import (
	"sync"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/metrics"
)

const defaultBroadcastBuffer = 256

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan targetedMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// targetedMessage carries the server scope alongside the payload. An empty
// serverID means fleet-wide.
type targetedMessage struct {
	serverID string
	data     []byte
}

func NewHub(broadcastBuffer int) *Hub {
	if broadcastBuffer <= 0 {
		broadcastBuffer = defaultBroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan targetedMessage, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().SetWSClients(h.ClientCount())
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.Get().SetWSClients(h.ClientCount())
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg targetedMessage) {
	var dropped []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.wants(msg.serverID) {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()

	if len(dropped) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range dropped {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.mu.Unlock()
}

// BroadcastToServer queues a message for clients watching the server (and
// clients watching the whole fleet).
func (h *Hub) BroadcastToServer(serverID string, message []byte) {
	select {
	case h.broadcast <- targetedMessage{serverID: serverID, data: message}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// Broadcast queues a fleet-wide message for every client.
func (h *Hub) Broadcast(message []byte) {
	h.BroadcastToServer("", message)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
