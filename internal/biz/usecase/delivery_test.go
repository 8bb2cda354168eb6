package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
	"github.com/aibisolutions/secretary/internal/retry"
)

type fakeTransport struct {
	name       string
	connected  bool
	connectErr error
	resolveErr error
	sendErr    error

	connectCalls int
	resolveCalls int
	sendCalls    int
	sentText     string
}

func (f *fakeTransport) Name() string      { return f.name }
func (f *fakeTransport) IsConnected() bool { return f.connected }

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Resolve(ctx context.Context, chatID string) (*repo.Recipient, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &repo.Recipient{ID: "rcpt-" + chatID}, nil
}

func (f *fakeTransport) Send(ctx context.Context, recipient *repo.Recipient, text string) error {
	f.sendCalls++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentText = text
	return nil
}

type fakeRegistry struct {
	transports map[string]repo.Transport
}

func newFakeRegistry(ts ...repo.Transport) *fakeRegistry {
	r := &fakeRegistry{transports: make(map[string]repo.Transport)}
	for _, t := range ts {
		r.Put(t)
	}
	return r
}

func (r *fakeRegistry) Get(name string) (repo.Transport, bool) {
	t, ok := r.transports[name]
	return t, ok
}

func (r *fakeRegistry) Put(t repo.Transport) {
	r.transports[t.Name()] = t
}

func newTestDelivery(reg repo.TransportRegistry) *DeliveryUsecase {
	uc := NewDeliveryUsecase(reg)
	uc.SetAcquirePolicy(retry.Policy{Attempts: 1})
	return uc
}

func TestSendSucceedsViaPrimary(t *testing.T) {
	primary := &fakeTransport{name: domain.TransportPrimary, connected: true}
	secondary := &fakeTransport{name: domain.TransportSecondary, connected: true}
	uc := newTestDelivery(newFakeRegistry(primary, secondary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Delivered || result.Transport != domain.TransportPrimary {
		t.Errorf("result = %+v, want delivered via primary", result)
	}
	if primary.sentText != "hello" {
		t.Errorf("primary sent %q", primary.sentText)
	}
	if secondary.sendCalls != 0 {
		t.Errorf("secondary sendCalls = %d, want 0", secondary.sendCalls)
	}
}

func TestSendFallsBackOnResolutionMiss(t *testing.T) {
	primary := &fakeTransport{
		name:       domain.TransportPrimary,
		connected:  true,
		resolveErr: repo.ErrRecipientUnresolvable,
	}
	secondary := &fakeTransport{name: domain.TransportSecondary, connected: true}
	uc := newTestDelivery(newFakeRegistry(primary, secondary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Transport != domain.TransportSecondary {
		t.Errorf("transport = %s, want secondary", result.Transport)
	}
	// A resolution miss is permanent: primary resolved once, never sent
	if primary.resolveCalls != 1 {
		t.Errorf("primary resolveCalls = %d, want 1", primary.resolveCalls)
	}
	if primary.sendCalls != 0 {
		t.Errorf("primary sendCalls = %d, want 0", primary.sendCalls)
	}
	if secondary.sendCalls != 1 {
		t.Errorf("secondary sendCalls = %d, want 1", secondary.sendCalls)
	}
	if result.Attempts[0].Outcome != domain.OutcomeRecipientNotFound {
		t.Errorf("primary outcome = %s", result.Attempts[0].Outcome)
	}
}

func TestSendReconnectsDisconnectedTransportOnce(t *testing.T) {
	primary := &fakeTransport{name: domain.TransportPrimary, connected: false}
	uc := newTestDelivery(newFakeRegistry(primary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Delivered {
		t.Fatal("not delivered after reconnect")
	}
	if primary.connectCalls != 1 {
		t.Errorf("connectCalls = %d, want 1", primary.connectCalls)
	}
}

func TestSendBothTransportsFailReturnsCombinedError(t *testing.T) {
	primary := &fakeTransport{
		name:      domain.TransportPrimary,
		connected: true,
		sendErr:   errors.New("rate limited"),
	}
	secondary := &fakeTransport{
		name:       domain.TransportSecondary,
		connected:  true,
		resolveErr: repo.ErrRecipientUnresolvable,
	}
	uc := newTestDelivery(newFakeRegistry(primary, secondary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err == nil {
		t.Fatal("Send succeeded, want combined failure")
	}
	if result.Delivered {
		t.Error("result.Delivered = true on total failure")
	}

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("error type = %T, want *DeliveryError", err)
	}
	if len(derr.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(derr.Attempts))
	}
	msg := err.Error()
	if !strings.Contains(msg, "rate limited") || !strings.Contains(msg, "recipient") {
		t.Errorf("combined error missing a cause: %q", msg)
	}
}

func TestSendMissingTransportIsUnavailable(t *testing.T) {
	secondary := &fakeTransport{name: domain.TransportSecondary, connected: true}
	uc := newTestDelivery(newFakeRegistry(secondary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Transport != domain.TransportSecondary {
		t.Errorf("transport = %s, want secondary", result.Transport)
	}
	if result.Attempts[0].Outcome != domain.OutcomeTransportUnavailable {
		t.Errorf("primary outcome = %s", result.Attempts[0].Outcome)
	}
}

func TestSendStopsAfterFirstSuccess(t *testing.T) {
	primary := &fakeTransport{name: domain.TransportPrimary, connected: true}
	secondary := &fakeTransport{name: domain.TransportSecondary, connected: true}
	uc := newTestDelivery(newFakeRegistry(primary, secondary))

	result, err := uc.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(result.Attempts))
	}
	if secondary.resolveCalls != 0 || secondary.sendCalls != 0 {
		t.Error("secondary was touched after primary success")
	}
}
