package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Subscribers only send control frames.
	maxMessageSize = 4 * 1024
)

// conn is the part of *websocket.Conn a Client uses.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one websocket subscriber of a Hub.
type Client struct {
	hub  *Hub
	conn conn
	send chan Message
}

// Serve subscribes ws to the hub and blocks until the connection closes
// or the hub stops. Call it from the websocket handler: the connection is
// returned to fiber's pool when the handler returns, so Serve does not
// return while the writer still holds it.
func Serve(hub *Hub, ws *websocket.Conn) {
	serve(hub, ws)
}

func serve(hub *Hub, ws conn) {
	defer ws.Close()

	c := hub.subscribe(ws)
	if c == nil {
		return
	}

	quit := make(chan struct{})
	written := make(chan struct{})
	go func() {
		defer close(written)
		c.write(quit)
	}()

	c.read(quit)
	<-written
}

// read discards inbound frames so pongs and closes are processed. It closes
// quit on exit.
func (c *Client) read(quit chan<- struct{}) {
	defer func() {
		c.hub.leave(c)
		close(quit)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write is the only writer on the connection. It returns when send is
// closed by the hub, a write fails, or the reader has quit. On a writer
// exit the read deadline is pulled in so the reader stops too.
func (c *Client) write(quit <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.SetReadDeadline(time.Now())
	}()

	for {
		var (
			frameType int
			data      []byte
		)
		select {
		case <-quit:
			return
		case msg, ok := <-c.send:
			if !ok {
				frameType = websocket.CloseMessage
			} else {
				frameType, data = int(msg.Type), msg.Data
			}
		case <-ping.C:
			frameType = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(frameType, data); err != nil || frameType == websocket.CloseMessage {
			return
		}
	}
}
