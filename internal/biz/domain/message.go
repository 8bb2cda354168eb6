package domain

import "time"

// Message represents one inbound or operator message in a chat
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	CreatedAt  time.Time
	IsOperator bool // Whether the message was sent by the operator identity

	// HasUnreadableFile marks voice/image/document content the analysis
	// pipeline cannot read. Forces manual review downstream.
	HasUnreadableFile bool
}

// IsAfter checks if the message is after the specified time
func (m *Message) IsAfter(t time.Time) bool {
	return m.CreatedAt.After(t)
}
