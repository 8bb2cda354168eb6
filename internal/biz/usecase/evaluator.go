package usecase

import (
	"github.com/aibisolutions/secretary/internal/biz/domain"
)

// Weights holds the base weight of each confidence source. They must sum to
// 1.0; the AI weight is derived as the remainder so the invariant holds by
// construction.
type Weights struct {
	Calendar float64
	Trello   float64
	Price    float64
}

// DefaultWeights mirrors the production tuning: AI 0.60, calendar 0.20,
// trello 0.10, price list 0.10.
var DefaultWeights = Weights{Calendar: 0.20, Trello: 0.10, Price: 0.10}

// AI returns the base AI weight (the remainder up to 1.0)
func (w Weights) AI() float64 {
	return 1.0 - w.Calendar - w.Trello - w.Price
}

func (w Weights) of(source string) float64 {
	switch source {
	case domain.SourceCalendar:
		return w.Calendar
	case domain.SourceTrello:
		return w.Trello
	case domain.SourcePrice:
		return w.Price
	}
	return 0
}

// EvaluatorUsecase blends the per-source scores into one final confidence.
// Pure and deterministic: identical inputs always produce identical output.
type EvaluatorUsecase struct {
	weights Weights
}

// NewEvaluatorUsecase creates an evaluator with the given base weights
func NewEvaluatorUsecase(weights Weights) *EvaluatorUsecase {
	return &EvaluatorUsecase{weights: weights}
}

// Evaluate combines the always-present base (AI) confidence with the
// optional source scores. Each unavailable source hands its weight to the
// AI source, so an outage raises trust in the model instead of diluting the
// score toward a neutral default. The weighted sum is truncated toward zero
// and clamped to [0,100].
func (uc *EvaluatorUsecase) Evaluate(baseConfidence int, signals map[string]domain.SignalScore) domain.ConfidenceBreakdown {
	scores := map[string]domain.SignalScore{
		domain.SourceAI: domain.Score(clamp(baseConfidence)),
	}
	weights := map[string]float64{
		domain.SourceAI: uc.weights.AI(),
	}

	for _, source := range domain.OptionalSources {
		sig := signals[source]
		scores[source] = sig
		if !sig.Available {
			// Redistribute: the missing source's trust goes back to
			// the model, which is always available.
			weights[domain.SourceAI] += uc.weights.of(source)
			weights[source] = 0
			continue
		}
		weights[source] = uc.weights.of(source)
	}

	var final float64
	for source, sig := range scores {
		if !sig.Available {
			continue
		}
		final += float64(clamp(sig.Value)) * weights[source]
	}

	return domain.ConfidenceBreakdown{
		Scores:  scores,
		Weights: weights,
		Final:   clamp(int(final)),
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
