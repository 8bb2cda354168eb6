package domain

// Signal source names. The AI source is always present; the rest are
// optional and may report unavailable.
const (
	SourceAI       = "ai"
	SourceCalendar = "calendar"
	SourceTrello   = "trello"
	SourcePrice    = "price_list"
)

// OptionalSources lists the sources whose weight is redistributed to the AI
// source when they are unavailable.
var OptionalSources = []string{SourceCalendar, SourceTrello, SourcePrice}

// SignalScore is a single source reading. Unavailable is distinct from a
// score of zero: an unreachable source hands its weight back to the AI
// source instead of dragging the result toward a low score.
type SignalScore struct {
	Value     int
	Available bool
}

// Score returns an available reading
func Score(v int) SignalScore {
	return SignalScore{Value: v, Available: true}
}

// Unavailable returns an unavailable reading
func Unavailable() SignalScore {
	return SignalScore{}
}

// ConfidenceBreakdown records one evaluation: raw per-source scores, the
// weights actually applied after redistribution, and the final result.
// Transient; logged but never persisted.
type ConfidenceBreakdown struct {
	Scores  map[string]SignalScore
	Weights map[string]float64
	Final   int
}
