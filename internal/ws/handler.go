package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tkzw41/showcase/internal/demo"
)

// Handler upgrades /ws/{demo_type}/{session_id} requests and runs the
// message loop: start_simulation, stop_simulation and ping are handled,
// anything else is echoed back.
type Handler struct {
	manager   *Manager
	simulator *Simulator
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(manager *Manager, simulator *Simulator, logger *zap.Logger) *Handler {
	return &Handler{
		manager:   manager,
		simulator: simulator,
		logger:    logger,
		upgrader: websocket.Upgrader{
			// Demo endpoint, no cross-origin restrictions.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	demoType, err := demo.ParseType(vars["demo_type"])
	if err != nil {
		http.Error(w, "unknown demo type", http.StatusBadRequest)
		return
	}
	sessionID := vars["session_id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client, err := h.manager.Register(conn, sessionID, string(demoType))
	if err != nil {
		// Register already closed the connection.
		return
	}

	defer func() {
		h.manager.Unregister(client)
		h.simulator.Stop(sessionID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn("malformed websocket message",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return
		}

		msgType, _ := msg["type"].(string)
		switch msgType {
		case "start_simulation":
			totalRecords := 100
			if v, ok := msg["total_records"].(float64); ok && v > 0 {
				totalRecords = int(v)
			}
			h.simulator.Start(demoType, sessionID, totalRecords)

		case "stop_simulation":
			h.simulator.Stop(sessionID)

		case "ping":
			if err := client.Send(pongMessage{Type: "pong", Timestamp: nowMillis()}); err != nil {
				return
			}

		default:
			if err := client.Send(echoMessage{Type: "echo", OriginalMessage: msg}); err != nil {
				return
			}
		}
	}
}
