package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"
	"github.com/aibisolutions/secretary/internal/retry"
)

// ManagedTransport is a transport whose liveness the keeper maintains
type ManagedTransport interface {
	repo.Transport
	MarkDisconnected()
}

// ConnectionKeeper populates the transport registry and keeps the handles
// alive. Delivery reads the registry concurrently; the keeper is the only
// writer.
type ConnectionKeeper struct {
	registry   repo.TransportRegistry
	transports []ManagedTransport

	// probeChatID is resolved periodically as a cheap liveness check
	probeChatID string
	interval    time.Duration
	reconnect   retry.Policy
	log         zerolog.Logger
}

// NewConnectionKeeper creates a keeper for the given transports
func NewConnectionKeeper(registry repo.TransportRegistry, probeChatID string, transports ...ManagedTransport) *ConnectionKeeper {
	return &ConnectionKeeper{
		registry:    registry,
		transports:  transports,
		probeChatID: probeChatID,
		interval:    60 * time.Second,
		reconnect:   retry.Policy{Attempts: 3, Delay: 2 * time.Second},
		log:         logging.Component("keeper"),
	}
}

// Run connects every transport, publishes the handles, then probes them
// until the context is canceled. Blocking.
func (k *ConnectionKeeper) Run(ctx context.Context) error {
	for _, t := range k.transports {
		if err := k.connect(ctx, t); err != nil {
			// Published anyway: delivery reports it unavailable until a
			// later probe brings it up.
			k.log.Error().Err(err).Str("transport", t.Name()).Msg("initial connect failed")
		}
		k.registry.Put(t)
	}
	k.log.Info().Int("transports", len(k.transports)).Msg("transport registry populated")

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.log.Info().Msg("connection keeper stopped")
			return ctx.Err()
		case <-ticker.C:
			k.probeAll(ctx)
		}
	}
}

func (k *ConnectionKeeper) connect(ctx context.Context, t ManagedTransport) error {
	return k.reconnect.Do(ctx, func() error {
		return t.Connect(ctx)
	})
}

func (k *ConnectionKeeper) probeAll(ctx context.Context) {
	for _, t := range k.transports {
		k.probe(ctx, t)
	}
}

// probe resolves the owner chat as a liveness check. A failed probe marks
// the transport disconnected and tries one reconnect cycle; the next
// delivery attempt also retries on its own.
func (k *ConnectionKeeper) probe(ctx context.Context, t ManagedTransport) {
	if !t.IsConnected() {
		if err := k.connect(ctx, t); err != nil {
			k.log.Warn().Err(err).Str("transport", t.Name()).Msg("reconnect failed")
		}
		return
	}
	if k.probeChatID == "" {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := t.Resolve(probeCtx, k.probeChatID)
	if err == nil || errors.Is(err, repo.ErrRecipientUnresolvable) {
		// An unresolvable probe chat still proves the API answers; only
		// transport-level failures count as dead.
		return
	}
	k.log.Warn().Err(err).Str("transport", t.Name()).Msg("liveness probe failed")
	t.MarkDisconnected()
}
