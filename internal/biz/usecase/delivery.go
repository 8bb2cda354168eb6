package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/logging"
	"github.com/aibisolutions/secretary/internal/retry"
)

// DeliveryError reports that every transport was exhausted. It carries the
// per-transport attempts so the operator sees both causes.
type DeliveryError struct {
	Attempts []domain.DeliveryAttempt
}

func (e *DeliveryError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Transport, a.Err))
	}
	return "delivery failed: " + strings.Join(parts, "; ")
}

// DeliveryUsecase executes sends with transport fallback. The registry is
// an explicit dependency; handles may be briefly absent during startup,
// which the acquisition retry tolerates.
type DeliveryUsecase struct {
	registry repo.TransportRegistry
	acquire  retry.Policy
	log      zerolog.Logger
}

// NewDeliveryUsecase creates a coordinator. Handle acquisition retries
// twice with a 2s fixed delay to ride out startup races.
func NewDeliveryUsecase(registry repo.TransportRegistry) *DeliveryUsecase {
	return &DeliveryUsecase{
		registry: registry,
		acquire:  retry.Policy{Attempts: 3, Delay: 2 * time.Second},
		log:      logging.Component("delivery"),
	}
}

// SetAcquirePolicy overrides the handle acquisition retry policy
func (uc *DeliveryUsecase) SetAcquirePolicy(p retry.Policy) {
	uc.acquire = p
}

// Send delivers text to the chat, trying the primary transport and falling
// back to the secondary exactly once. At most one transport succeeds per
// call; the first success stops the sequence. On total failure the error is
// a *DeliveryError carrying both causes, which the caller must surface to
// the operator rather than retry silently.
func (uc *DeliveryUsecase) Send(ctx context.Context, chatID, text string) (*domain.DeliveryResult, error) {
	sendID := uuid.NewString()
	result := &domain.DeliveryResult{}

	for i, role := range []string{domain.TransportPrimary, domain.TransportSecondary} {
		attempt := uc.sendVia(ctx, role, chatID, text)
		attempt.Index = i
		result.Attempts = append(result.Attempts, attempt)

		evt := uc.log.Info()
		if attempt.Outcome != domain.OutcomeSuccess {
			evt = uc.log.Warn()
		}
		evt.Str("send_id", sendID).
			Str("chat_id", chatID).
			Str("transport", role).
			Str("outcome", string(attempt.Outcome)).
			Str("error", attempt.Err).
			Msg("delivery attempt")

		if attempt.Outcome == domain.OutcomeSuccess {
			result.Delivered = true
			result.Transport = role
			return result, nil
		}
	}

	return result, &DeliveryError{Attempts: result.Attempts}
}

// sendVia runs the per-transport phases: acquire, liveness check, recipient
// resolution, send. Every failure is converted into an attempt record; no
// phase propagates a panic or an unclassified error.
func (uc *DeliveryUsecase) sendVia(ctx context.Context, role, chatID, text string) domain.DeliveryAttempt {
	attempt := domain.DeliveryAttempt{Transport: role, At: time.Now()}

	// Phase 1: acquire the handle, tolerating startup races
	var transport repo.Transport
	err := uc.acquire.Do(ctx, func() error {
		t, ok := uc.registry.Get(role)
		if !ok {
			return repo.ErrTransportUnavailable
		}
		transport = t
		return nil
	})
	if err != nil {
		attempt.Outcome = domain.OutcomeTransportUnavailable
		attempt.Err = err.Error()
		return attempt
	}

	// Phase 2: liveness check with a single reconnect
	if !transport.IsConnected() {
		if err := transport.Connect(ctx); err != nil {
			attempt.Outcome = domain.OutcomeTransportUnavailable
			attempt.Err = fmt.Sprintf("reconnect: %v", err)
			return attempt
		}
	}

	// Phase 3: explicit recipient resolution. A miss is permanent for
	// this transport, never retried.
	recipient, err := transport.Resolve(ctx, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrRecipientUnresolvable) {
			attempt.Outcome = domain.OutcomeRecipientNotFound
		} else {
			attempt.Outcome = domain.OutcomeError
		}
		attempt.Err = err.Error()
		return attempt
	}
	attempt.Recipient = recipient.ID

	// Phase 4: the send itself
	if err := transport.Send(ctx, recipient, text); err != nil {
		attempt.Outcome = domain.OutcomeError
		attempt.Err = err.Error()
		return attempt
	}

	attempt.Outcome = domain.OutcomeSuccess
	return attempt
}
