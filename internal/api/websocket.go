package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/session"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing     = "ping"
	MsgTypeSnapshot = "snapshot"

	// Server -> Client messages; session events keep their own type names.
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const (
	wsSendBuffer = 32
	wsWriteWait  = 10 * time.Second
)

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// stateSnapshot is sent on connect and on request.
type stateSnapshot struct {
	Status  models.LoadStatus  `json:"status"`
	Filters session.FilterView `json:"filters"`
}

// wsClient is one connection. The hub never writes to conn directly; frames go
// through send so a slow client cannot block the publisher.
type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Hub fans session events out to connected dashboards.
type Hub struct {
	session  *session.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	unsubscribe func()
}

// NewHub subscribes to m and returns a hub ready to accept connections.
func NewHub(m *session.Manager, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := &Hub{
		session: m,
		logger:  logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		clients: make(map[*wsClient]struct{}),
	}
	hub.unsubscribe = m.Subscribe(hub.broadcast)
	return hub
}

// Close unsubscribes from the session and disconnects every client.
func (hub *Hub) Close() {
	hub.unsubscribe()
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for cl := range hub.clients {
		close(cl.send)
		delete(hub.clients, cl)
	}
}

// Clients returns the number of connected clients.
func (hub *Hub) Clients() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}

func (hub *Hub) broadcast(e session.Event) {
	msg, err := newMessage(e.Type, e)
	if err != nil {
		hub.logger.Error("encode event", zap.String("type", e.Type), zap.Error(err))
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for cl := range hub.clients {
		select {
		case cl.send <- msg:
		default:
			// Client is not keeping up; drop it rather than stall the session.
			close(cl.send)
			delete(hub.clients, cl)
			hub.logger.Warn("dropping slow websocket client")
		}
	}
}

// HandleWebSocket upgrades the connection and streams session events until
// the client disconnects.
func (hub *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	cl := &wsClient{conn: conn, send: make(chan WSMessage, wsSendBuffer)}

	hub.mu.Lock()
	hub.clients[cl] = struct{}{}
	hub.mu.Unlock()
	hub.logger.Debug("client connected", zap.String("remote", c.RealIP()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.writeLoop(cl)
	}()

	hub.enqueue(cl, hub.snapshotMessage(MsgTypeConnected))
	hub.readLoop(cl)

	hub.remove(cl)
	<-done
	conn.Close()
	hub.logger.Debug("client disconnected", zap.String("remote", c.RealIP()))
	return nil
}

func (hub *Hub) readLoop(cl *wsClient) {
	for {
		var msg WSMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				hub.logger.Warn("connection error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			hub.enqueue(cl, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeSnapshot:
			reply := hub.snapshotMessage(MsgTypeSnapshot)
			reply.ID = msg.ID
			hub.enqueue(cl, reply)
		default:
			errMsg, _ := newMessage(MsgTypeError, map[string]string{
				"message": "unknown message type: " + msg.Type,
				"code":    "INVALID_TYPE",
			})
			errMsg.ID = msg.ID
			hub.enqueue(cl, errMsg)
		}
	}
}

func (hub *Hub) writeLoop(cl *wsClient) {
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := cl.conn.WriteJSON(msg); err != nil {
			hub.logger.Debug("write failed", zap.Error(err))
			// Unblock the read loop; remove happens there.
			cl.conn.Close()
			for range cl.send {
			}
			return
		}
	}
	_ = cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	cl.conn.Close()
}

// enqueue sends msg to one client if it is still registered.
func (hub *Hub) enqueue(cl *wsClient, msg WSMessage) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
	}
}

func (hub *Hub) remove(cl *wsClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.clients[cl]; ok {
		close(cl.send)
		delete(hub.clients, cl)
	}
}

func (hub *Hub) snapshotMessage(typ string) WSMessage {
	msg, err := newMessage(typ, stateSnapshot{
		Status:  hub.session.Status(),
		Filters: session.NewFilterView(hub.session.Filters()),
	})
	if err != nil {
		hub.logger.Error("encode snapshot", zap.Error(err))
	}
	return msg
}

func newMessage(typ string, payload any) (WSMessage, error) {
	msg := WSMessage{Type: typ, Timestamp: time.Now().UnixMilli()}
	data, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	msg.Payload = data
	return msg, nil
}
