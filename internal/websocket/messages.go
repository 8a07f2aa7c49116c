package websocket

import (
	"encoding/json"
	"time"

	"github.com/example/temple-engagements/internal/application"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message is the envelope every frame uses. Domain events carry their
// application.EventKind as the type.
type Message struct {
	Type         MessageType `json:"type"`
	Timestamp    time.Time   `json:"timestamp"`
	EngagementID string      `json:"engagement_id,omitempty"`
	Payload      any         `json:"payload"`
}

// NewMessage creates a message stamped with the given time.
func NewMessage(msgType MessageType, at time.Time, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// EventMessage wraps a domain event, converting its payload with encode.
func EventMessage(event application.Event, encode PayloadEncoder) Message {
	payload := event.Payload
	if encode != nil {
		payload = encode(event)
	}
	msg := NewMessage(MessageType(event.Kind), event.OccurredAt, payload)
	msg.EngagementID = event.EngagementID
	return msg
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
