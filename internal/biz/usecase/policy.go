package usecase

import (
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
)

// OperatingHours gates auto-send to the configured local working window.
// Hours are half-open [Start, End) in the given location, so DST shifts are
// handled by the zone database.
type OperatingHours struct {
	Start    int
	End      int
	Location *time.Location
}

// NewOperatingHours resolves the timezone name; an unknown name falls back
// to UTC
func NewOperatingHours(start, end int, tz string) OperatingHours {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return OperatingHours{Start: start, End: end, Location: loc}
}

// Contains reports whether t falls within the working window. A window
// whose start is after its end wraps past midnight, e.g. 22 to 6.
func (h OperatingHours) Contains(t time.Time) bool {
	hour := t.In(h.Location).Hour()
	if h.Start <= h.End {
		return hour >= h.Start && hour < h.End
	}
	return hour >= h.Start || hour < h.End
}

// DecisionPolicy classifies an evaluated conversation into an action.
// Pure: all inputs are explicit, no branch can panic.
type DecisionPolicy struct {
	autoThreshold int
	hours         OperatingHours
	now           func() time.Time
}

// NewDecisionPolicy creates a policy with the given auto-send threshold
func NewDecisionPolicy(autoThreshold int, hours OperatingHours) *DecisionPolicy {
	return &DecisionPolicy{
		autoThreshold: autoThreshold,
		hours:         hours,
		now:           time.Now,
	}
}

// Decide applies the rules in order:
//  1. unreadable attachment forces review with confidence reported as zero
//  2. confidence at or above the threshold inside operating hours auto-sends
//  3. everything else goes to review
//
// Skip never originates here; it comes from the self-filter or an explicit
// operator discard.
func (p *DecisionPolicy) Decide(breakdown domain.ConfidenceBreakdown, replyText string, hasUnreadableAttachment bool) domain.Decision {
	if hasUnreadableAttachment {
		zeroed := breakdown
		zeroed.Final = 0
		return domain.Decision{
			Action:    domain.ActionReview,
			Breakdown: zeroed,
			ReplyText: replyText,
			Reason:    "unreadable attachment",
		}
	}

	if breakdown.Final >= p.autoThreshold && p.hours.Contains(p.now()) {
		return domain.Decision{
			Action:    domain.ActionAutoSend,
			Breakdown: breakdown,
			ReplyText: replyText,
			Reason:    "confidence above threshold within operating hours",
		}
	}

	reason := "confidence below threshold"
	if breakdown.Final >= p.autoThreshold {
		reason = "outside operating hours"
	}
	return domain.Decision{
		Action:    domain.ActionReview,
		Breakdown: breakdown,
		ReplyText: replyText,
		Reason:    reason,
	}
}
