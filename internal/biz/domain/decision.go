package domain

// Action classifies what happens to a candidate reply
type Action string

const (
	ActionAutoSend Action = "auto_send"
	ActionReview   Action = "review"
	ActionSkip     Action = "skip"
)

// Decision is the policy outcome for one evaluated conversation
type Decision struct {
	Action    Action
	Breakdown ConfidenceBreakdown
	ReplyText string
	Reason    string
}
