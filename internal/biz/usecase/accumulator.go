package usecase

import (
	"sync"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
)

// AccumulatorUsecase maintains rolling per-chat state and produces the
// self-filter decision. State is keyed by chat id; each chat carries its own
// lock so concurrent ingestion across different chats never contends.
type AccumulatorUsecase struct {
	states   map[string]*chatEntry
	statesMu sync.RWMutex

	bufferCap int
}

type chatEntry struct {
	mu    sync.Mutex
	state *domain.ChatState
}

// NewAccumulatorUsecase creates a new accumulator with the given per-chat
// buffer capacity
func NewAccumulatorUsecase(bufferCap int) *AccumulatorUsecase {
	return &AccumulatorUsecase{
		states:    make(map[string]*chatEntry),
		bufferCap: bufferCap,
	}
}

// Ingest appends a message to the chat's buffer and updates last-speaker
// tracking
func (uc *AccumulatorUsecase) Ingest(chatID, chatTitle string, msg domain.Message) {
	entry := uc.getEntry(chatID, chatTitle)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if chatTitle != "" {
		entry.state.ChatTitle = chatTitle
	}
	entry.state.Append(msg)
}

// ShouldRespond is the self-filter: false iff the operator was the last
// sender, or the chat has no history. Runs before any signal-source call so
// an already-answered chat costs nothing.
func (uc *AccumulatorUsecase) ShouldRespond(chatID string) bool {
	entry := uc.lookup(chatID)
	if entry == nil {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if len(entry.state.Messages) == 0 {
		return false
	}
	return !entry.state.OperatorWasLast
}

// UnansweredMessages returns the run of consecutive non-operator messages
// awaiting one combined reply
func (uc *AccumulatorUsecase) UnansweredMessages(chatID string) []domain.Message {
	entry := uc.lookup(chatID)
	if entry == nil {
		return nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	group := entry.state.Unanswered()
	out := make([]domain.Message, len(group))
	copy(out, group)
	return out
}

// UnansweredText returns the unanswered group joined into one block, and
// whether any of it carries unreadable content
func (uc *AccumulatorUsecase) UnansweredText(chatID string) (text string, hasUnreadable bool) {
	entry := uc.lookup(chatID)
	if entry == nil {
		return "", false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.UnansweredText(), entry.state.HasUnreadableFiles()
}

// OperatorStyleSample returns up to limit recent operator-authored texts for
// the reply generator's tone matching
func (uc *AccumulatorUsecase) OperatorStyleSample(chatID string, limit int) []string {
	entry := uc.lookup(chatID)
	if entry == nil {
		return nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sample := entry.state.OperatorSample(limit)
	texts := make([]string, 0, len(sample))
	for _, m := range sample {
		texts = append(texts, m.Text)
	}
	return texts
}

// ChatTitle returns the last known title for a chat
func (uc *AccumulatorUsecase) ChatTitle(chatID string) string {
	entry := uc.lookup(chatID)
	if entry == nil {
		return ""
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.ChatTitle
}

// LastActivity returns the timestamp of the chat's most recent message
func (uc *AccumulatorUsecase) LastActivity(chatID string) time.Time {
	entry := uc.lookup(chatID)
	if entry == nil {
		return time.Time{}
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.LastActivity
}

// ActiveChats returns the ids of all tracked chats
func (uc *AccumulatorUsecase) ActiveChats() []string {
	uc.statesMu.RLock()
	defer uc.statesMu.RUnlock()
	ids := make([]string, 0, len(uc.states))
	for id := range uc.states {
		ids = append(ids, id)
	}
	return ids
}

// PruneInactive drops state for chats idle since the cutoff, returning how
// many were removed
func (uc *AccumulatorUsecase) PruneInactive(cutoff time.Time) int {
	uc.statesMu.Lock()
	defer uc.statesMu.Unlock()
	removed := 0
	for id, entry := range uc.states {
		entry.mu.Lock()
		idle := entry.state.IdleSince(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(uc.states, id)
			removed++
		}
	}
	return removed
}

func (uc *AccumulatorUsecase) getEntry(chatID, chatTitle string) *chatEntry {
	uc.statesMu.Lock()
	defer uc.statesMu.Unlock()
	entry, ok := uc.states[chatID]
	if !ok {
		entry = &chatEntry{state: domain.NewChatState(chatID, chatTitle, uc.bufferCap)}
		uc.states[chatID] = entry
	}
	return entry
}

func (uc *AccumulatorUsecase) lookup(chatID string) *chatEntry {
	uc.statesMu.RLock()
	defer uc.statesMu.RUnlock()
	return uc.states[chatID]
}
