package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/session"
)

func dialHub(t *testing.T) (*websocket.Conn, *Hub, *testServer) {
	t.Helper()
	ts := newTestServer(t)
	hub := NewHub(ts.session, nil)
	ts.e.GET("/api/ws", hub.HandleWebSocket)

	srv := httptest.NewServer(ts.e)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, hub, ts
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketConnectedSnapshot(t *testing.T) {
	conn, hub, _ := dialHub(t)

	msg := readMessage(t, conn)
	assert.Equal(t, MsgTypeConnected, msg.Type)

	var snap stateSnapshot
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	assert.Equal(t, models.LoadStateIdle, snap.Status.State)
	assert.Equal(t, "ALL", snap.Filters.TruckType)
	assert.Equal(t, 1, hub.Clients())
}

func TestWebSocketPingAndUnknown(t *testing.T) {
	conn, _, _ := dialHub(t)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p1"}))
	pong := readMessage(t, conn)
	assert.Equal(t, MsgTypePong, pong.Type)
	assert.Equal(t, "p1", pong.ID)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "upload:init", ID: "u1"}))
	errMsg := readMessage(t, conn)
	assert.Equal(t, MsgTypeError, errMsg.Type)
	assert.Equal(t, "u1", errMsg.ID)
	assert.Contains(t, string(errMsg.Payload), "INVALID_TYPE")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypeSnapshot, ID: "s1"}))
	snap := readMessage(t, conn)
	assert.Equal(t, MsgTypeSnapshot, snap.Type)
	assert.Equal(t, "s1", snap.ID)
}

func TestWebSocketStreamsSessionEvents(t *testing.T) {
	conn, _, ts := dialHub(t)
	readMessage(t, conn)

	ts.session.SelectCarrier(2)
	msg := readMessage(t, conn)
	require.Equal(t, session.EventFiltersChanged, msg.Type)
	var ev session.Event
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	require.NotNil(t, ev.Filters)
	require.NotNil(t, ev.Filters.CarrierID)
	assert.Equal(t, 2, *ev.Filters.CarrierID)

	ts.session.StartLoad(ts.h.currentLoader())
	assert.Equal(t, session.EventLoadStarted, readMessage(t, conn).Type)
	done := readMessage(t, conn)
	assert.Equal(t, session.EventLoadComplete, done.Type)
	require.NoError(t, json.Unmarshal(done.Payload, &ev))
	require.NotNil(t, ev.Status)
	assert.Equal(t, models.LoadStateReady, ev.Status.State)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	conn, hub, _ := dialHub(t)
	readMessage(t, conn)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
