package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrServerAtCapacity  = errors.New("websocket server at capacity")
	ErrSessionAtCapacity = errors.New("too many connections for session")
)

// Client is one registered WebSocket connection. Writes are serialized
// through the client's mutex; gorilla connections allow only one concurrent
// writer.
type Client struct {
	conn         *websocket.Conn
	sessionID    string
	demoType     string
	connectionID string
	connectedAt  time.Time

	mu sync.Mutex
}

func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// Manager tracks connections per demo session and enforces the global and
// per-session ceilings. A connection over either limit is closed immediately
// with 1013 rather than queued.
type Manager struct {
	logger        *zap.Logger
	maxConns      int
	maxPerSession int

	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
}

func NewManager(maxConns, maxPerSession int, logger *zap.Logger) *Manager {
	return &Manager{
		logger:        logger,
		maxConns:      maxConns,
		maxPerSession: maxPerSession,
		sessions:      make(map[string]map[*Client]struct{}),
	}
}

// Register admits an upgraded connection into the session's set and pushes
// connection_established. On a capacity failure the connection is closed
// here and the caller must not use it further.
func (m *Manager) Register(conn *websocket.Conn, sessionID, demoType string) (*Client, error) {
	m.mu.Lock()
	if m.totalLocked() >= m.maxConns {
		m.mu.Unlock()
		closeWithReason(conn, "Server at capacity")
		return nil, ErrServerAtCapacity
	}
	if len(m.sessions[sessionID]) >= m.maxPerSession {
		m.mu.Unlock()
		closeWithReason(conn, "Too many connections for session")
		return nil, ErrSessionAtCapacity
	}

	client := &Client{
		conn:         conn,
		sessionID:    sessionID,
		demoType:     demoType,
		connectionID: uuid.NewString(),
		connectedAt:  time.Now(),
	}
	if m.sessions[sessionID] == nil {
		m.sessions[sessionID] = make(map[*Client]struct{})
	}
	m.sessions[sessionID][client] = struct{}{}
	m.mu.Unlock()

	m.logger.Info("websocket connected",
		zap.String("session_id", sessionID),
		zap.String("demo_type", demoType),
		zap.String("connection_id", client.connectionID),
	)

	if err := client.Send(connectionEstablished{
		Type:      "connection_established",
		SessionID: sessionID,
		DemoType:  demoType,
		Timestamp: nowMillis(),
	}); err != nil {
		m.Unregister(client)
		return nil, err
	}

	return client, nil
}

// Unregister removes the client and closes its connection. Empty session
// sets are pruned.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if set, ok := m.sessions[client.sessionID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.sessions, client.sessionID)
		}
	}
	m.mu.Unlock()

	_ = client.conn.Close()

	m.logger.Info("websocket disconnected", zap.String("session_id", client.sessionID))
}

// SendToSession fans out to every connection watching the session. A failed
// send drops that connection only.
func (m *Manager) SendToSession(sessionID string, v any) {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.sessions[sessionID]))
	for client := range m.sessions[sessionID] {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(v); err != nil {
			m.logger.Warn("websocket send failed, dropping connection",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			m.Unregister(client)
		}
	}
}

func (m *Manager) SessionConnections(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

func (m *Manager) TotalConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalLocked()
}

func (m *Manager) totalLocked() int {
	total := 0
	for _, set := range m.sessions {
		total += len(set)
	}
	return total
}

func closeWithReason(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
