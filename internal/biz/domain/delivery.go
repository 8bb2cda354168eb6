package domain

import "time"

// Transport roles, tried in order with fallback
const (
	TransportPrimary   = "primary"
	TransportSecondary = "secondary"
)

// AttemptOutcome classifies one send attempt
type AttemptOutcome string

const (
	OutcomeSuccess              AttemptOutcome = "success"
	OutcomeRecipientNotFound    AttemptOutcome = "recipient_not_found"
	OutcomeTransportUnavailable AttemptOutcome = "transport_unavailable"
	OutcomeError                AttemptOutcome = "error"
)

// DeliveryAttempt records one send operation against one transport.
// Transient; logged, never persisted.
type DeliveryAttempt struct {
	Transport string
	Recipient string
	Outcome   AttemptOutcome
	Err       string
	Index     int
	At        time.Time
}

// DeliveryResult is the overall outcome of a coordinated send
type DeliveryResult struct {
	Delivered bool
	Transport string // transport that succeeded, empty on failure
	Attempts  []DeliveryAttempt
}
