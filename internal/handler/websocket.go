package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"csa/internal/domain"
	"csa/internal/hub"
	"csa/internal/query"
)

// Planner answers journey queries.
type Planner interface {
	Plan(ctx context.Context, q query.Query) (*domain.Journey, error)
}

// WSHandler answers journey queries over a websocket and relays hub
// events to the socket. Each socket gets its own outgoing queue, drained
// by a write loop.
type WSHandler struct {
	planner    Planner
	hub        *hub.Hub
	bufferSize int
	logger     *slog.Logger
}

func NewWSHandler(planner Planner, h *hub.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		planner:    planner,
		hub:        h,
		bufferSize: 64,
		logger:     logger.With("handler", "websocket"),
	}
}

type WSMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WSReply struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Journey *domain.Journey `json:"journey,omitempty"`
	Error   *errorResponse  `json:"error,omitempty"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), h.bufferSize)
	h.hub.Register(client)
	ServerStats.IncWSConnections()
	h.logger.Debug("client connected", "client_id", client.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		ServerStats.DecWSConnections()
		conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Debug("client disconnected", "client_id", client.ID)
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}
		ServerStats.IncWSMessagesIn()

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "plan":
			h.handlePlan(ctx, client, msg)
		case "ping":
			h.enqueue(client, WSReply{Type: "pong", ID: msg.ID})
		default:
			h.enqueue(client, WSReply{Type: "error", ID: msg.ID, Error: &errorResponse{Error: "unknown message type", Kind: "bad_request"}})
		}
	}
}

func (h *WSHandler) handlePlan(ctx context.Context, client *hub.Client, msg WSMessage) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	var q query.Query
	if err := json.Unmarshal(msg.Payload, &q); err != nil {
		h.enqueue(client, WSReply{Type: "error", ID: msg.ID, Error: &errorResponse{Error: "invalid plan payload", Kind: "bad_request"}})
		return
	}

	j, err := h.planner.Plan(ctx, q)
	if err != nil {
		_, kind := classify(err)
		h.enqueue(client, WSReply{Type: "error", ID: msg.ID, Error: &errorResponse{Error: err.Error(), Kind: kind}})
		return
	}
	h.enqueue(client, WSReply{Type: "journey", ID: msg.ID, Journey: j})
}

// enqueue is only called from the read loop, before the client is
// unregistered and its queue closed.
func (h *WSHandler) enqueue(client *hub.Client, reply WSReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full, dropping reply", "client_id", client.ID, "type", reply.Type)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
