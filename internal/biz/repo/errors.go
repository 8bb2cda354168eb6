package repo

import "errors"

// Boundary errors. Signal-source errors are absorbed by the evaluator;
// transport errors drive the delivery coordinator's phase transitions.
var (
	// ErrSourceUnavailable means a signal source could not be reached.
	// Not fatal: the evaluator redistributes the source's weight.
	ErrSourceUnavailable = errors.New("signal source unavailable")

	// ErrRecipientUnresolvable means the chat id cannot be resolved to a
	// sendable recipient on this transport. Permanent per transport.
	ErrRecipientUnresolvable = errors.New("recipient unresolvable")

	// ErrTransportUnavailable means the transport handle is missing or
	// disconnected after retries.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrDraftNotFound means no active draft exists for the chat.
	ErrDraftNotFound = errors.New("draft not found")
)
