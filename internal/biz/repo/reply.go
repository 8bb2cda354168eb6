package repo

import "context"

// AnalysisRequest is the input for conversation analysis
type AnalysisRequest struct {
	ChatTitle string
	Text      string
}

// Analysis is the model's read of an unanswered conversation
type Analysis struct {
	Report     string
	Confidence int // base confidence, 0..100
}

// ReplyRequest is the input for candidate reply generation
type ReplyRequest struct {
	ChatTitle string
	Text      string
	Report    string
	// StyleSample holds recent operator-authored messages for tone matching
	StyleSample []string
	// HasUnreadableFiles forces the zero-confidence fallback reply
	HasUnreadableFiles bool
}

// Reply is a generated candidate reply
type Reply struct {
	Text       string
	Confidence int
}

// ReplyGenerator is the natural-language generation boundary. The core
// treats both calls as opaque; it never interprets the text.
type ReplyGenerator interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
	GenerateReply(ctx context.Context, req ReplyRequest) (*Reply, error)
}
