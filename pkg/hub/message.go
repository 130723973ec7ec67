// Package hub fans pipeline events out to websocket subscribers.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType is the websocket frame type a Message is written as.
type MessageType int

const (
	JSONMessage   MessageType = websocket.TextMessage
	BinaryMessage MessageType = websocket.BinaryMessage
)

// Message is one frame queued for every subscriber.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes, e.g. synthesized audio.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
