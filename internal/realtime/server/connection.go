package server

import (
	"sync"
	"time"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"

	"github.com/gorilla/websocket"
)

// outboundMessage is the wire shape of every server-to-client frame.
type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// connection adapts one websocket to the subscriber contract. Writes are
// serialized with a mutex because fan-out goroutines and the ping ticker
// share the socket.
type connection struct {
	identity *domain.Connection
	conn     *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration
}

var _ ports.Subscriber = (*connection)(nil)

func newConnection(identity *domain.Connection, conn *websocket.Conn, writeTimeout time.Duration) *connection {
	return &connection{
		identity:     identity,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *connection) Identity() *domain.Connection {
	return c.identity
}

func (c *connection) Send(event string, payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(outboundMessage{Type: event, Payload: payload})
}

func (c *connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *connection) close() {
	c.conn.Close()
}
