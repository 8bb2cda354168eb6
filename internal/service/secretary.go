package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/biz/usecase"
	"github.com/aibisolutions/secretary/internal/logging"
)

const styleSampleLimit = 5

// InboundMessage is one normalized message entering the pipeline
type InboundMessage struct {
	ChatID            string
	ChatTitle         string
	MsgID             string
	SenderID          string
	SenderName        string
	Text              string
	HasUnreadableFile bool
	CreatedAt         time.Time
	FromApp           bool
}

// SecretaryService runs the auto-reply pipeline: accumulate, self-filter,
// analyze, score, decide, then either send or park a draft for review.
type SecretaryService struct {
	accumulator *usecase.AccumulatorUsecase
	evaluator   *usecase.EvaluatorUsecase
	policy      *usecase.DecisionPolicy
	review      *usecase.ReviewUsecase
	delivery    *usecase.DeliveryUsecase

	generator repo.ReplyGenerator
	scorers   []repo.SignalScorer

	ownerChatID string
	ownerUserID string
	window      time.Duration
	log         zerolog.Logger

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// NewSecretaryService wires the pipeline
func NewSecretaryService(
	accumulator *usecase.AccumulatorUsecase,
	evaluator *usecase.EvaluatorUsecase,
	policy *usecase.DecisionPolicy,
	review *usecase.ReviewUsecase,
	delivery *usecase.DeliveryUsecase,
	generator repo.ReplyGenerator,
	scorers []repo.SignalScorer,
	ownerChatID, ownerUserID string,
	window time.Duration,
) *SecretaryService {
	return &SecretaryService{
		accumulator: accumulator,
		evaluator:   evaluator,
		policy:      policy,
		review:      review,
		delivery:    delivery,
		generator:   generator,
		scorers:     scorers,
		ownerChatID: ownerChatID,
		ownerUserID: ownerUserID,
		window:      window,
		log:         logging.Component("secretary"),
		timers:      make(map[string]*time.Timer),
	}
}

// HandleInbound ingests a message and arms the quiet-window timer for its
// chat. Processing fires only after the window passes with no newer
// message, so a burst gets one combined reply.
func (s *SecretaryService) HandleInbound(msg InboundMessage) {
	if msg.ChatID == s.ownerChatID {
		// The owner's control chat is for notifications and commands,
		// never auto-replied to.
		return
	}

	isOperator := msg.FromApp || (s.ownerUserID != "" && msg.SenderID == s.ownerUserID)
	s.accumulator.Ingest(msg.ChatID, msg.ChatTitle, domain.Message{
		ID:                msg.MsgID,
		ChatID:            msg.ChatID,
		SenderID:          msg.SenderID,
		SenderName:        msg.SenderName,
		Text:              msg.Text,
		CreatedAt:         msg.CreatedAt,
		IsOperator:        isOperator,
		HasUnreadableFile: msg.HasUnreadableFile,
	})

	if isOperator {
		// The operator answered; cancel any pending flush for this chat.
		s.cancelTimer(msg.ChatID)
		return
	}
	s.armTimer(msg.ChatID)
}

func (s *SecretaryService) armTimer(chatID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[chatID]; ok {
		t.Reset(s.window)
		return
	}
	s.timers[chatID] = time.AfterFunc(s.window, func() {
		s.cancelTimer(chatID)
		s.ProcessChat(context.Background(), chatID)
	})
}

func (s *SecretaryService) cancelTimer(chatID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[chatID]; ok {
		t.Stop()
		delete(s.timers, chatID)
	}
}

// ProcessChat evaluates one chat's unanswered messages and acts on the
// decision
func (s *SecretaryService) ProcessChat(ctx context.Context, chatID string) {
	if !s.accumulator.ShouldRespond(chatID) {
		s.log.Debug().Str("chat_id", chatID).Msg("self-filter: nothing to answer")
		return
	}

	text, hasUnreadable := s.accumulator.UnansweredText(chatID)
	chatTitle := s.accumulator.ChatTitle(chatID)

	analysis := s.analyze(ctx, chatID, chatTitle, text, hasUnreadable)

	reply, err := s.generator.GenerateReply(ctx, repo.ReplyRequest{
		ChatTitle:          chatTitle,
		Text:               text,
		Report:             analysis.Report,
		StyleSample:        s.accumulator.OperatorStyleSample(chatID, styleSampleLimit),
		HasUnreadableFiles: hasUnreadable,
	})
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("reply generation failed")
		return
	}

	signals := s.collectSignals(ctx, repo.SignalContext{
		ChatID:    chatID,
		ChatTitle: chatTitle,
		Text:      text,
		Report:    analysis.Report,
	})

	base := analysis.Confidence
	if reply.Confidence < base {
		base = reply.Confidence
	}
	breakdown := s.evaluator.Evaluate(base, signals)
	decision := s.policy.Decide(breakdown, reply.Text, hasUnreadable)

	s.log.Info().
		Str("chat_id", chatID).
		Str("action", string(decision.Action)).
		Int("confidence", decision.Breakdown.Final).
		Str("reason", decision.Reason).
		Msg("decision")

	switch decision.Action {
	case domain.ActionAutoSend:
		s.autoSend(ctx, chatID, chatTitle, decision)
	case domain.ActionReview:
		s.parkForReview(ctx, chatID, chatTitle, decision)
	}
}

// analyze runs the AI analysis. Unreadable conversations and analysis
// failures degrade to zero confidence rather than aborting; the decision
// layer turns that into a review.
func (s *SecretaryService) analyze(ctx context.Context, chatID, chatTitle, text string, hasUnreadable bool) repo.Analysis {
	if hasUnreadable {
		return repo.Analysis{Report: "conversation contains an unreadable attachment"}
	}
	analysis, err := s.generator.Analyze(ctx, repo.AnalysisRequest{ChatTitle: chatTitle, Text: text})
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("analysis failed")
		return repo.Analysis{}
	}
	return *analysis
}

// collectSignals queries all scorers concurrently. A failed scorer counts
// as unavailable; its weight moves to the AI source downstream.
func (s *SecretaryService) collectSignals(ctx context.Context, sc repo.SignalContext) map[string]domain.SignalScore {
	signals := make(map[string]domain.SignalScore, len(s.scorers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, scorer := range s.scorers {
		scorer := scorer
		g.Go(func() error {
			score, err := scorer.Score(gctx, sc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, repo.ErrSourceUnavailable) {
					s.log.Warn().Err(err).Str("source", scorer.Name()).Msg("scorer failed")
				}
				signals[scorer.Name()] = domain.Unavailable()
				return nil
			}
			signals[scorer.Name()] = domain.Score(score)
			return nil
		})
	}
	_ = g.Wait()
	return signals
}

func (s *SecretaryService) autoSend(ctx context.Context, chatID, chatTitle string, decision domain.Decision) {
	result, err := s.delivery.Send(ctx, chatID, decision.ReplyText)
	if err == nil && result.Delivered {
		s.log.Info().Str("chat_id", chatID).Str("transport", result.Transport).Msg("auto-sent")
		return
	}

	// Could not deliver automatically; degrade to a reviewable draft so
	// the reply is not lost.
	s.log.Error().Err(err).Str("chat_id", chatID).Msg("auto-send failed, parking for review")
	s.parkForReview(ctx, chatID, chatTitle, decision)
}

func (s *SecretaryService) parkForReview(ctx context.Context, chatID, chatTitle string, decision domain.Decision) {
	draft, err := s.review.CreateDraft(ctx, chatID, chatTitle, decision.ReplyText, decision.Breakdown.Final)
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("draft creation failed")
		return
	}
	s.notifyOwner(chatID, chatTitle, draft, decision)
}

// notifyOwner tells the operator a draft awaits review. Fire and forget:
// the draft survives even when the notification cannot be delivered.
func (s *SecretaryService) notifyOwner(chatID, chatTitle string, draft *domain.Draft, decision domain.Decision) {
	if s.ownerChatID == "" {
		return
	}

	text := formatReviewNotification(chatTitle, draft, decision)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.delivery.Send(ctx, s.ownerChatID, text); err != nil {
			s.log.Warn().Err(err).Str("chat_id", chatID).Msg("review notification failed")
		}
	}()
}

// NotifyStartup announces the service to the owner chat
func (s *SecretaryService) NotifyStartup(ctx context.Context) {
	if s.ownerChatID == "" {
		return
	}
	if _, err := s.delivery.Send(ctx, s.ownerChatID, "Secretary is online and watching your chats."); err != nil {
		s.log.Warn().Err(err).Msg("startup notification failed")
	}
}

// Status summarizes the running pipeline for the ops surfaces
func (s *SecretaryService) Status(ctx context.Context) (activeChats int, pendingDrafts int, err error) {
	drafts, err := s.review.ListPending(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(s.accumulator.ActiveChats()), len(drafts), nil
}

func formatReviewNotification(chatTitle string, draft *domain.Draft, decision domain.Decision) string {
	var sb strings.Builder
	title := chatTitle
	if title == "" {
		title = draft.ChatID
	}
	fmt.Fprintf(&sb, "Draft for review: %s\n", title)
	fmt.Fprintf(&sb, "Confidence: %d (%s)\n", decision.Breakdown.Final, decision.Reason)

	for _, source := range append([]string{domain.SourceAI}, domain.OptionalSources...) {
		sig, ok := decision.Breakdown.Scores[source]
		if !ok {
			continue
		}
		if !sig.Available {
			fmt.Fprintf(&sb, "  %s: unavailable\n", source)
			continue
		}
		fmt.Fprintf(&sb, "  %s: %d (weight %.2f)\n", source, sig.Value, decision.Breakdown.Weights[source])
	}

	fmt.Fprintf(&sb, "\n%s", draft.Text)
	return sb.String()
}
