package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/tartan/internal/events"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

// Client streams bus events to one WebSocket connection. Nothing is sent
// until the client subscribes, and events stamped before the connection
// was accepted are never replayed
type Client struct {
	conn      *websocket.Conn
	consumer  topic.Consumer[*api.Event]
	filter    events.Filter
	connected time.Time
	done      chan struct{}
	closeOnce sync.Once
}

const (
	socketWriteWait   = 10 * time.Second
	socketPongWait    = 60 * time.Second
	socketPingPeriod  = socketPongWait * 9 / 10
	socketReadLimit   = 512
	socketBufferSize  = 1024
	socketInboxLength = 16

	msgSubscribe  = "subscribe"
	msgSubscribed = "subscribed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  socketBufferSize,
	WriteBufferSize: socketBufferSize,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func rejectAll(*api.Event) bool { return false }

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.Error(err))
		return
	}

	client := &Client{
		conn:      conn,
		consumer:  s.bus.Subscribe(),
		filter:    rejectAll,
		connected: time.Now(),
		done:      make(chan struct{}),
	}
	s.registerWebSocket(client)

	go func() {
		defer s.unregisterWebSocket(client)
		client.serve()
	}()
}

// Close asks the client to send a close frame and disconnect
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) serve() {
	defer func() {
		c.consumer.Close()
		_ = c.conn.Close()
	}()

	c.keepAlive()
	ping := time.NewTicker(socketPingPeriod)
	defer ping.Stop()

	inbox := make(chan []byte, socketInboxLength)
	go c.receive(inbox)

	for {
		select {
		case <-c.done:
			c.write(websocket.CloseMessage, []byte{})
			return

		case msg, ok := <-inbox:
			if !ok || !c.subscribe(msg) {
				return
			}

		case ev, ok := <-c.consumer.Receive():
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if c.wants(ev) && !c.writeJSON(ev) {
				return
			}

		case <-ping.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) keepAlive() {
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	}
	c.conn.SetReadLimit(socketReadLimit)
	_ = extend("")
	c.conn.SetPongHandler(extend)
}

func (c *Client) receive(inbox chan<- []byte) {
	defer close(inbox)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case inbox <- msg:
		case <-c.done:
			return
		}
	}
}

// subscribe replaces the client's filter when msg is a subscription and
// acknowledges it. Other messages are ignored
func (c *Client) subscribe(msg []byte) bool {
	var req api.SubscribeRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		slog.Warn("Malformed WebSocket message",
			log.Error(err))
		return true
	}
	if req.Type != msgSubscribe {
		return true
	}

	c.filter = events.BuildFilter(&req.Data)
	return c.writeJSON(&api.SubscribedResponse{
		Type: msgSubscribed,
		Data: req.Data,
	})
}

func (c *Client) wants(ev *api.Event) bool {
	return !ev.Timestamp.Before(c.connected) && c.filter(ev)
}

func (c *Client) writeJSON(v any) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	if err := c.conn.WriteJSON(v); err != nil {
		slog.Error("WebSocket write failed",
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) write(kind int, data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return c.conn.WriteMessage(kind, data) == nil
}
