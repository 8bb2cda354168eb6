package repo

import (
	"context"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
)

// DraftRepo stores the active draft per chat
type DraftRepo interface {
	// Save inserts or replaces the draft for its chat id
	Save(ctx context.Context, draft *domain.Draft) error

	// GetByChat returns the active draft, or ErrDraftNotFound
	GetByChat(ctx context.Context, chatID string) (*domain.Draft, error)

	// ListPending returns all drafts awaiting operator action, newest first
	ListPending(ctx context.Context) ([]*domain.Draft, error)

	// Delete removes the draft for a chat; deleting a missing draft is a no-op
	Delete(ctx context.Context, chatID string) error

	// DeleteStale removes pending drafts created before the cutoff,
	// returning the number removed
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
