package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Client is one connected websocket. The hub closes Send when the client
// is unregistered.
type Client struct {
	ID   string
	Send chan []byte
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:   id,
		Send: make(chan []byte, bufferSize),
	}
}

// Event is pushed to every connected client.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// TimetableUpdate tells clients that journeys planned on the old
// timetable may be stale.
type TimetableUpdate struct {
	Fingerprint string `json:"fingerprint"`
	Connections int    `json:"connections"`
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stopped    chan struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 64),
		stopped:    make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
}

// Run serves registrations and broadcasts until ctx is done. Register and
// Unregister return immediately once Run has exited.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.dropAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case data := <-h.broadcast:
			h.fanout(data)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Broadcast queues ev for every client. Events are dropped when the hub
// is backed up.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", "type", ev.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", ev.Type)
	}
}

// NotifyTimetableUpdate announces a reloaded timetable.
func (h *Hub) NotifyTimetableUpdate(fingerprint string, connections int) {
	h.Broadcast(Event{
		Type:    "timetable_updated",
		Payload: TimetableUpdate{Fingerprint: fingerprint, Connections: connections},
	})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanout(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

// dropAllClients forgets every client without closing its queue; the
// websocket handlers still own their read loops at shutdown.
func (h *Hub) dropAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = make(map[*Client]struct{})
}
