package view

import (
	"encoding/json"
	"time"
)

// MessageType identifies a message pushed to or received from a live page connection.
type MessageType string

const (
	// TypeSnapshot carries a full Snapshot of the page.
	TypeSnapshot MessageType = "SNAPSHOT"

	// TypeError carries an ErrorPayload.
	TypeError MessageType = "ERROR"

	// TypeFilter is sent by the browser to change the subscriber's Criteria.
	TypeFilter MessageType = "FILTER"

	// TypeRefresh is sent by the browser to reload the roster and bookings.
	TypeRefresh MessageType = "REFRESH"

	// TypeClosed tells the browser the page was closed or evicted.
	TypeClosed MessageType = "CLOSED"
)

// Message is the envelope of every WebSocket frame.
type Message struct {
	Type      MessageType `json:"type"`
	PageID    string      `json:"pageId"`
	Timestamp int64       `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// ErrorPayload is the payload of TypeError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FilterPayload is the payload of TypeFilter.
type FilterPayload struct {
	Month string `json:"month"`
	Query string `json:"q"`
	Tab   string `json:"tab"`
}

// NewMessage builds a Message stamped with the current time.
func NewMessage(msgType MessageType, pageID string, payload any) Message {
	return Message{
		Type:      msgType,
		PageID:    pageID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// inbound is a frame received from the browser.
type inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
