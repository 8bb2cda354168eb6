package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"
)

// ValidationError rejects malformed operator input with no state change
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ActionResult is the outcome of one operator action
type ActionResult struct {
	OK     bool
	Status string
}

// Deliverer abstracts the delivery coordinator for the review workflow
type Deliverer interface {
	Send(ctx context.Context, chatID, text string) (*domain.DeliveryResult, error)
}

// ReviewUsecase runs the human-in-the-loop draft workflow. Deliveries for
// the same chat are serialized by a per-chat mutex so no two concurrent
// sends race on one pending draft.
type ReviewUsecase struct {
	drafts    repo.DraftRepo
	deliverer Deliverer
	log       zerolog.Logger

	chatLocks map[string]*sync.Mutex
	locksMu   sync.Mutex
}

// NewReviewUsecase creates a review workflow
func NewReviewUsecase(drafts repo.DraftRepo, deliverer Deliverer) *ReviewUsecase {
	return &ReviewUsecase{
		drafts:    drafts,
		deliverer: deliverer,
		log:       logging.Component("review"),
		chatLocks: make(map[string]*sync.Mutex),
	}
}

// CreateDraft stores a new pending draft for the chat, replacing any
// existing one
func (uc *ReviewUsecase) CreateDraft(ctx context.Context, chatID, chatTitle, text string, confidence int) (*domain.Draft, error) {
	lock := uc.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	draft := &domain.Draft{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		ChatTitle:  chatTitle,
		Text:       text,
		Confidence: confidence,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	uc.log.Info().
		Str("chat_id", chatID).
		Str("draft_id", draft.ID).
		Int("confidence", confidence).
		Msg("draft created")
	return draft, nil
}

// ListPending returns all drafts awaiting operator action
func (uc *ReviewUsecase) ListPending(ctx context.Context) ([]*domain.Draft, error) {
	return uc.drafts.ListPending(ctx)
}

// Approve forwards the stored candidate text unchanged to delivery. The
// draft is removed only once delivery succeeds; on failure it returns to
// pending with the cause visible to the operator.
func (uc *ReviewUsecase) Approve(ctx context.Context, chatID string) ActionResult {
	lock := uc.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	draft, err := uc.drafts.GetByChat(ctx, chatID)
	if err != nil {
		return uc.missing(err, chatID)
	}
	if err := draft.Approve(); err != nil {
		return ActionResult{Status: err.Error()}
	}
	return uc.deliver(ctx, draft)
}

// RequestEdit marks the draft as waiting for replacement text
func (uc *ReviewUsecase) RequestEdit(ctx context.Context, chatID string) ActionResult {
	lock := uc.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	draft, err := uc.drafts.GetByChat(ctx, chatID)
	if err != nil {
		return uc.missing(err, chatID)
	}
	if err := draft.BeginEdit(); err != nil {
		return ActionResult{Status: err.Error()}
	}
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return ActionResult{Status: fmt.Sprintf("save draft: %v", err)}
	}
	return ActionResult{OK: true, Status: "waiting for edited text"}
}

// SubmitEdit replaces the candidate text with operator-supplied text and
// delivers it. Empty text is rejected with no state change.
func (uc *ReviewUsecase) SubmitEdit(ctx context.Context, chatID, text string) ActionResult {
	if strings.TrimSpace(text) == "" {
		verr := &ValidationError{Msg: "edit text must not be empty"}
		return ActionResult{Status: verr.Error()}
	}

	lock := uc.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	draft, err := uc.drafts.GetByChat(ctx, chatID)
	if err != nil {
		return uc.missing(err, chatID)
	}
	if err := draft.ApplyEdit(strings.TrimSpace(text)); err != nil {
		return ActionResult{Status: err.Error()}
	}
	return uc.deliver(ctx, draft)
}

// Discard drops the draft with no delivery attempt. Idempotent: a second
// discard reports already discarded instead of failing.
func (uc *ReviewUsecase) Discard(ctx context.Context, chatID string) ActionResult {
	lock := uc.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	draft, err := uc.drafts.GetByChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrDraftNotFound) {
			return ActionResult{OK: true, Status: "already discarded"}
		}
		return ActionResult{Status: fmt.Sprintf("load draft: %v", err)}
	}
	if err := draft.Skip(); err != nil {
		return ActionResult{Status: err.Error()}
	}
	if err := uc.drafts.Delete(ctx, chatID); err != nil {
		return ActionResult{Status: fmt.Sprintf("delete draft: %v", err)}
	}

	uc.log.Info().Str("chat_id", chatID).Msg("draft discarded")
	return ActionResult{OK: true, Status: "draft discarded"}
}

// deliver sends the draft text and finalizes the draft lifecycle. Called
// with the chat lock held.
func (uc *ReviewUsecase) deliver(ctx context.Context, draft *domain.Draft) ActionResult {
	result, err := uc.deliverer.Send(ctx, draft.ChatID, draft.Text)
	if err != nil || !result.Delivered {
		cause := "delivery failed"
		if err != nil {
			cause = err.Error()
		}
		draft.MarkSendFailed(cause)
		if serr := uc.drafts.Save(ctx, draft); serr != nil {
			uc.log.Error().Err(serr).Str("chat_id", draft.ChatID).Msg("retain failed draft")
		}
		return ActionResult{Status: fmt.Sprintf("send failed, draft retained: %s", cause)}
	}

	if err := uc.drafts.Delete(ctx, draft.ChatID); err != nil {
		uc.log.Error().Err(err).Str("chat_id", draft.ChatID).Msg("delete delivered draft")
	}

	uc.log.Info().
		Str("chat_id", draft.ChatID).
		Str("transport", result.Transport).
		Str("status", string(draft.Status)).
		Msg("draft delivered")
	return ActionResult{OK: true, Status: fmt.Sprintf("sent via %s transport", result.Transport)}
}

func (uc *ReviewUsecase) missing(err error, chatID string) ActionResult {
	if errors.Is(err, repo.ErrDraftNotFound) {
		return ActionResult{Status: fmt.Sprintf("no active draft for chat %s", chatID)}
	}
	return ActionResult{Status: fmt.Sprintf("load draft: %v", err)}
}

func (uc *ReviewUsecase) chatLock(chatID string) *sync.Mutex {
	uc.locksMu.Lock()
	defer uc.locksMu.Unlock()
	lock, ok := uc.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		uc.chatLocks[chatID] = lock
	}
	return lock
}
