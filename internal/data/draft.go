package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"

	_ "modernc.org/sqlite"
)

// draftRepo implements the draft repository on sqlite so pending drafts
// survive a restart
type draftRepo struct {
	db *sql.DB
}

// NewDraftRepo opens (creating if needed) the draft database
func NewDraftRepo(dbPath string) (repo.DraftRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One active draft per chat: chat_id is the primary key, so a new
	// draft replaces the old one.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			chat_id TEXT PRIMARY KEY,
			draft_id TEXT NOT NULL,
			chat_title TEXT,
			text TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			last_error TEXT DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create drafts table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_drafts_created ON drafts(created_at)`)

	log := logging.Component("drafts")
	log.Info().Str("path", dbPath).Msg("draft database initialized")
	return &draftRepo{db: db}, nil
}

// Save inserts or replaces the draft for its chat
func (r *draftRepo) Save(ctx context.Context, draft *domain.Draft) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO drafts (chat_id, draft_id, chat_title, text, confidence, status, created_at, updated_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, draft.ChatID, draft.ID, draft.ChatTitle, draft.Text, draft.Confidence,
		string(draft.Status), draft.CreatedAt.Unix(), draft.UpdatedAt.Unix(), draft.LastError)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// GetByChat returns the active draft for a chat
func (r *draftRepo) GetByChat(ctx context.Context, chatID string) (*domain.Draft, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, draft_id, chat_title, text, confidence, status, created_at, updated_at, last_error
		FROM drafts
		WHERE chat_id = ?
	`, chatID)

	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// ListPending returns all drafts awaiting operator action, newest first
func (r *draftRepo) ListPending(ctx context.Context) ([]*domain.Draft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, draft_id, chat_title, text, confidence, status, created_at, updated_at, last_error
		FROM drafts
		WHERE status IN (?, ?)
		ORDER BY created_at DESC
	`, string(domain.StatusPending), string(domain.StatusPendingEdit))
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// Delete removes the draft for a chat; missing drafts are a no-op
func (r *draftRepo) Delete(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// DeleteStale removes drafts created before the cutoff
func (r *draftRepo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM drafts WHERE created_at < ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (r *draftRepo) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
	var draft domain.Draft
	var status string
	var createdAt, updatedAt int64
	err := row.Scan(&draft.ChatID, &draft.ID, &draft.ChatTitle, &draft.Text,
		&draft.Confidence, &status, &createdAt, &updatedAt, &draft.LastError)
	if err != nil {
		return nil, err
	}
	draft.Status = domain.DraftStatus(status)
	draft.CreatedAt = time.Unix(createdAt, 0)
	draft.UpdatedAt = time.Unix(updatedAt, 0)
	return &draft, nil
}
