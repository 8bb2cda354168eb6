package domain

import (
	"strings"
	"time"
)

// ChatState is the rolling per-conversation state. It keeps a bounded FIFO
// buffer of recent messages and tracks who spoke last. Methods are pure with
// respect to external state; callers are responsible for locking.
type ChatState struct {
	ChatID    string
	ChatTitle string
	Messages  []Message
	Cap       int

	LastSenderID    string
	OperatorWasLast bool
	LastActivity    time.Time
}

// NewChatState creates chat state with the given buffer capacity
func NewChatState(chatID, chatTitle string, cap int) *ChatState {
	if cap <= 0 {
		cap = 50
	}
	return &ChatState{
		ChatID:    chatID,
		ChatTitle: chatTitle,
		Cap:       cap,
	}
}

// Append adds a message, evicting the oldest entries beyond capacity
func (s *ChatState) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > s.Cap {
		s.Messages = s.Messages[len(s.Messages)-s.Cap:]
	}
	s.LastSenderID = msg.SenderID
	s.OperatorWasLast = msg.IsOperator
	s.LastActivity = msg.CreatedAt
}

// Unanswered returns the contiguous suffix of non-operator messages, i.e.
// everything received since the operator last replied. Empty when the
// operator spoke last or there is no history.
func (s *ChatState) Unanswered() []Message {
	start := len(s.Messages)
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsOperator {
			break
		}
		start = i
	}
	return s.Messages[start:]
}

// UnansweredText joins the unanswered group into one text block so a burst
// of messages gets a single coherent reply.
func (s *ChatState) UnansweredText() string {
	group := s.Unanswered()
	parts := make([]string, 0, len(group))
	for _, m := range group {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

// HasUnreadableFiles reports whether any unanswered message carries content
// the analyzer could not read.
func (s *ChatState) HasUnreadableFiles() bool {
	for _, m := range s.Unanswered() {
		if m.HasUnreadableFile {
			return true
		}
	}
	return false
}

// OperatorSample returns up to limit most recent operator-authored messages,
// newest last. Used for reply tone matching.
func (s *ChatState) OperatorSample(limit int) []Message {
	if limit <= 0 {
		return nil
	}
	var sample []Message
	for i := len(s.Messages) - 1; i >= 0 && len(sample) < limit; i-- {
		if s.Messages[i].IsOperator {
			sample = append(sample, s.Messages[i])
		}
	}
	// Reverse to chronological order
	for i, j := 0, len(sample)-1; i < j; i, j = i+1, j-1 {
		sample[i], sample[j] = sample[j], sample[i]
	}
	return sample
}

// IdleSince reports whether the chat has seen no activity since t
func (s *ChatState) IdleSince(t time.Time) bool {
	return s.LastActivity.Before(t)
}
