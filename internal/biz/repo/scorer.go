package repo

import "context"

// SignalContext carries the conversation context a scorer may need
type SignalContext struct {
	ChatID    string
	ChatTitle string
	// Text is the accumulated unanswered message block under evaluation
	Text string
	// Report is the AI analysis report, when already available
	Report string
}

// SignalScorer is one external confidence source. Score returns 0..100 or
// ErrSourceUnavailable; any other error is treated as unavailable too, but
// gets logged at a higher level.
type SignalScorer interface {
	// Name returns the source name used in the confidence breakdown
	Name() string

	Score(ctx context.Context, sc SignalContext) (int, error)
}
