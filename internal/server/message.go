package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies a WebSocket message
type MessageType string

const (
	// Client → Server
	MessageTypeGameState MessageType = "game_state"
	MessageTypeStats     MessageType = "stats"
	MessageTypePing      MessageType = "ping"

	// Server → Client
	MessageTypeAdvice MessageType = "advice"
	MessageTypePong   MessageType = "pong"
	MessageTypeError  MessageType = "error"
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	return string(t)
}

// Message is the envelope for every WebSocket frame
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// StatsRequestData asks for the statistics summary
type StatsRequestData struct {
	FormKey string `json:"formkey,omitempty"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthData is the health endpoint body
type HealthData struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
	Connections int       `json:"connections"`
}
