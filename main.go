package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/aibisolutions/secretary/internal/api"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/biz/usecase"
	"github.com/aibisolutions/secretary/internal/conf"
	"github.com/aibisolutions/secretary/internal/data"
	"github.com/aibisolutions/secretary/internal/logging"
	"github.com/aibisolutions/secretary/internal/service"
	"github.com/aibisolutions/secretary/mcpserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	logging.Setup(os.Getenv("LOG_JSON") == "true", cfg.Debug)
	log := logging.Component("main")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("secretary stopped")
	}
}

func run(cfg *conf.Config) error {
	log := logging.Component("main")

	// Storage
	drafts, err := data.NewDraftRepo(cfg.Review.DraftDBPath)
	if err != nil {
		return fmt.Errorf("open draft store: %w", err)
	}

	// AI boundary
	generator, err := data.NewAIGenerator(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.BusinessDataPath)
	if err != nil {
		return fmt.Errorf("create ai generator: %w", err)
	}

	// Signal sources
	scorers := []repo.SignalScorer{
		data.NewCalendarScorer(
			cfg.Signals.GoogleClientID,
			cfg.Signals.GoogleClientSecret,
			cfg.Signals.GoogleRefreshToken,
			cfg.Signals.CalendarID,
		),
		data.NewTrelloScorer(cfg.Signals.TrelloAPIKey, cfg.Signals.TrelloToken, cfg.Signals.TrelloBoardID),
		data.NewPriceListScorer(cfg.AI.BusinessDataPath),
	}

	// Transports and delivery
	registry := data.NewTransportRegistry()
	primary := data.NewLarkTransport("primary", cfg.Transports.PrimaryAppID, cfg.Transports.PrimaryAppSecret)
	secondary := data.NewLarkTransport("secondary", cfg.Transports.SecondaryAppID, cfg.Transports.SecondaryAppSecret)
	delivery := usecase.NewDeliveryUsecase(registry)

	// Core pipeline
	accumulator := usecase.NewAccumulatorUsecase(cfg.Accumulator.BufferCap)
	evaluator := usecase.NewEvaluatorUsecase(usecase.Weights{
		Calendar: cfg.Signals.CalendarWeight,
		Trello:   cfg.Signals.TrelloWeight,
		Price:    cfg.Signals.PriceWeight,
	})
	policy := usecase.NewDecisionPolicy(cfg.Decision.AutoThreshold, usecase.NewOperatingHours(
		cfg.Decision.HoursStart, cfg.Decision.HoursEnd, cfg.Decision.Timezone,
	))
	review := usecase.NewReviewUsecase(drafts, delivery)

	secretary := service.NewSecretaryService(
		accumulator, evaluator, policy, review, delivery,
		generator, scorers,
		cfg.Review.OwnerChatID, cfg.Review.OwnerUserID,
		time.Duration(cfg.Accumulator.WindowSeconds)*time.Second,
	)

	primary.OnMessage(func(msg data.InboundMessage) {
		secretary.HandleInbound(service.InboundMessage{
			ChatID:            msg.ChatID,
			ChatTitle:         msg.ChatTitle,
			MsgID:             msg.MsgID,
			SenderID:          msg.SenderID,
			Text:              msg.Text,
			HasUnreadableFile: msg.HasUnreadableFile,
			CreatedAt:         msg.CreatedAt,
			FromApp:           msg.SenderType == "app",
		})
	})

	keeper := service.NewConnectionKeeper(registry, cfg.Review.OwnerChatID, primary, secondary)
	scheduler := service.NewMaintenanceScheduler(
		accumulator, drafts,
		time.Duration(cfg.Accumulator.IdleMinutes)*time.Minute,
		time.Duration(cfg.Review.DraftMaxAgeH)*time.Hour,
	)
	opsServer := api.NewServer(review, secretary, cfg.Ops.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return keeper.Run(gctx) })
	g.Go(func() error { return primary.Listen(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return opsServer.Start(gctx) })

	if os.Getenv("MCP_STDIO") == "true" {
		mcpSrv := mcpserver.NewServer(review, secretary)
		g.Go(func() error { return mcpSrv.Run(gctx) })
	}

	// Give the keeper a moment to publish handles, then announce.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case <-time.After(5 * time.Second):
			secretary.NotifyStartup(gctx)
			return nil
		}
	})

	log.Info().Msg("secretary started")
	return g.Wait()
}
