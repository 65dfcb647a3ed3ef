package gateway

import (
	"time"
)

// MessageType identifies a live feed message
type MessageType string

const (
	MessageRoundStarted MessageType = "round_started"
	MessageGuessPlaced  MessageType = "guess_placed"
	MessageRoundSettled MessageType = "round_settled"
	MessageCommentary   MessageType = "commentary"
	MessageNotification MessageType = "notification"
)

// Message is one frame pushed to live feed clients
type Message struct {
	Type      MessageType `json:"type"`
	RoundID   string      `json:"round_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
}

// NotificationData is the data of a MessageNotification frame
type NotificationData struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CommentaryData is the data of a MessageCommentary frame
type CommentaryData struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}
