package repo

import "context"

// Recipient is a resolved sendable handle on one transport
type Recipient struct {
	ID    string
	Title string
}

// Transport is one send-capable identity on the messaging platform
type Transport interface {
	// Name returns the transport role, e.g. "primary"
	Name() string

	IsConnected() bool
	Connect(ctx context.Context) error

	// Resolve maps a chat id to a sendable recipient. Returns
	// ErrRecipientUnresolvable when the recipient never interacted with
	// this identity; that is permanent for this transport.
	Resolve(ctx context.Context, chatID string) (*Recipient, error)

	Send(ctx context.Context, recipient *Recipient, text string) error
}

// TransportRegistry is the shared handle lookup. Populated by the
// connection keeper, read by concurrent delivery coordinator calls; Get
// may return false during startup races.
type TransportRegistry interface {
	Get(name string) (Transport, bool)
	Put(t Transport)
}
