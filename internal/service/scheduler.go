package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/biz/usecase"
	"github.com/aibisolutions/secretary/internal/logging"
)

// MaintenanceScheduler prunes idle chat state and expires stale drafts in
// the background
type MaintenanceScheduler struct {
	accumulator *usecase.AccumulatorUsecase
	drafts      repo.DraftRepo

	chatIdle    time.Duration
	draftMaxAge time.Duration
	interval    time.Duration
	log         zerolog.Logger
}

// NewMaintenanceScheduler creates a scheduler with the given retention
// windows
func NewMaintenanceScheduler(
	accumulator *usecase.AccumulatorUsecase,
	drafts repo.DraftRepo,
	chatIdle, draftMaxAge time.Duration,
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		accumulator: accumulator,
		drafts:      drafts,
		chatIdle:    chatIdle,
		draftMaxAge: draftMaxAge,
		interval:    time.Hour,
		log:         logging.Component("scheduler"),
	}
}

// Run loops until the context is canceled. Blocking.
func (s *MaintenanceScheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("chat_idle", s.chatIdle).
		Dur("draft_max_age", s.draftMaxAge).
		Msg("maintenance scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("maintenance scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *MaintenanceScheduler) sweep(ctx context.Context) {
	if removed := s.accumulator.PruneInactive(time.Now().Add(-s.chatIdle)); removed > 0 {
		s.log.Info().Int("chats", removed).Msg("pruned idle chat state")
	}

	expired, err := s.drafts.DeleteStale(ctx, time.Now().Add(-s.draftMaxAge))
	if err != nil {
		s.log.Error().Err(err).Msg("stale draft cleanup failed")
		return
	}
	if expired > 0 {
		s.log.Info().Int64("drafts", expired).Msg("expired stale drafts")
	}
}
