package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"platewire/internal/core/domain"
	"platewire/internal/core/services"
	memoryrepo "platewire/internal/infrastructure/repositories/memory"
	"platewire/internal/realtime/dispatch"
	"platewire/internal/realtime/handlers"
	"platewire/internal/realtime/room"
	"platewire/pkg/config"
	"platewire/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv  *httptest.Server
	auth services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	log := logger.NewNop()

	rooms := room.NewManager(memoryrepo.NewPresenceRepository(), nil, log)
	auth := services.NewAuthService("test-secret", time.Hour)

	reg := dispatch.NewRegistry(nil, log)
	handlers.NewOrderHandler(rooms, memoryrepo.NewOrderQueryRepository(), log).Register(reg)
	handlers.NewInventoryHandler(rooms, memoryrepo.NewInventoryQueryRepository(), log).Register(reg)
	handlers.NewUserHandler(rooms, log).Register(reg)

	ws := NewWebSocketServer(rooms, auth, reg, cfg, log)
	srv := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, auth: auth}
}

func (e *testEnv) dial(t *testing.T, user domain.UserID, role domain.Role) *websocket.Conn {
	t.Helper()

	token, err := e.auth.GenerateToken(user, role, "", string(user))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil discards frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) frame {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %s", wantType)
		if f.Type == wantType {
			return f
		}
		require.True(t, time.Now().Before(deadline), "timed out waiting for %s", wantType)
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload string) {
	t.Helper()
	msg := map[string]interface{}{"type": eventType}
	if payload != "" {
		msg["payload"] = json.RawMessage(payload)
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderCreateFlowsToCustomer(t *testing.T) {
	env := newTestEnv(t)

	waiter := env.dial(t, "u-waiter", domain.RoleWaiter)
	customer := env.dial(t, "cust-1", domain.RoleCustomer)

	// The waiter sits in all_staff, so the customer's arrival is visible
	// there; that confirms the customer is registered before we proceed.
	readUntil(t, waiter, "user:connected")
	readUntil(t, waiter, "user:connected")

	sendEvent(t, waiter, "order:create",
		`{"tableId":"t1","customerId":"cust-1","items":[{"productId":"p1","name":"Espresso","quantity":1,"price":3}],"total":3}`)

	ack := readUntil(t, waiter, "order:create_success")
	var env1 domain.OrderEnvelope
	require.NoError(t, json.Unmarshal(ack.Payload, &env1))
	assert.Equal(t, domain.OrderPending, env1.Status)
	assert.NotEmpty(t, env1.OrderID)

	// The owning customer is notified directly even without room membership.
	created := readUntil(t, customer, "order:created")
	var env2 domain.OrderEnvelope
	require.NoError(t, json.Unmarshal(created.Payload, &env2))
	assert.Equal(t, env1.OrderID, env2.OrderID)
}

func TestInventoryUpdateDeniedForCustomerEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	customer := env.dial(t, "cust-1", domain.RoleCustomer)

	sendEvent(t, customer, "inventory:update_stock",
		`{"productId":"flour","currentStock":2,"minStock":10}`)

	errFrame := readUntil(t, customer, "inventory:error")
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, "PERMISSION_DENIED", payload.Code)
}

func TestUnknownEventGetsErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	waiter := env.dial(t, "u-waiter", domain.RoleWaiter)
	sendEvent(t, waiter, "order:make_coffee", `{}`)

	errFrame := readUntil(t, waiter, "order:error")
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, "INVALID_DATA", payload.Code)
}

func TestTokenFromAuthorizationHeader(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.auth.GenerateToken("u-admin", domain.RoleAdmin, "", "Admin")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http")
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	// The admin sees their own arrival announcement.
	f := readUntil(t, conn, "user:connected")
	var staff domain.StaffEnvelope
	require.NoError(t, json.Unmarshal(f.Payload, &staff))
	assert.Equal(t, domain.UserID("u-admin"), staff.UserID)
}

func TestServerCarriesRealtimeTimeouts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Realtime.PongTimeout = 42 * time.Second

	rooms := room.NewManager(memoryrepo.NewPresenceRepository(), nil, logger.NewNop())
	ws := NewWebSocketServer(rooms, services.NewAuthService("s", time.Hour), dispatch.NewRegistry(nil, logger.NewNop()), cfg, logger.NewNop())

	assert.Equal(t, 42*time.Second, ws.pongTimeout, "pong refresh uses its own timeout")
	assert.Equal(t, cfg.Realtime.ReadTimeout, ws.readTimeout)
	assert.Equal(t, cfg.Realtime.PingInterval, ws.pingInterval)
}

func TestReaderExitsWhenLoopIsGone(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- c
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	wsConn := <-serverSide
	defer wsConn.Close()

	rooms := room.NewManager(memoryrepo.NewPresenceRepository(), nil, logger.NewNop())
	ws := NewWebSocketServer(rooms, services.NewAuthService("s", time.Hour), dispatch.NewRegistry(nil, logger.NewNop()), config.DefaultConfig(), logger.NewNop())

	messages := make(chan dispatch.EventMessage, 2)
	errs := make(chan error, 1)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		ws.readMessages(wsConn, messages, errs, done)
		close(finished)
	}()

	// Overfill the buffer so the reader ends up blocked on a send that
	// nothing will ever drain.
	for i := 0; i < 5; i++ {
		require.NoError(t, client.WriteJSON(map[string]string{"type": "order:create"}))
	}
	select {
	case <-finished:
		t.Fatal("reader exited while its loop was still alive")
	case <-time.After(100 * time.Millisecond):
	}

	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("reader still blocked after its loop went away")
	}
}
