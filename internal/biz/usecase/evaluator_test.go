package usecase

import (
	"math"
	"testing"

	"github.com/aibisolutions/secretary/internal/biz/domain"
)

func TestEvaluateRedistributesUnavailableWeight(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	breakdown := uc.Evaluate(85, map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Unavailable(),
		domain.SourceTrello:   domain.Score(50),
		domain.SourcePrice:    domain.Score(100),
	})

	if got := breakdown.Weights[domain.SourceAI]; math.Abs(got-0.80) > 1e-9 {
		t.Errorf("ai weight = %v, want 0.80", got)
	}
	if got := breakdown.Weights[domain.SourceCalendar]; got != 0 {
		t.Errorf("calendar weight = %v, want 0", got)
	}
	// 85*0.80 + 50*0.10 + 100*0.10 = 83
	if breakdown.Final != 83 {
		t.Errorf("final = %d, want 83", breakdown.Final)
	}
}

func TestEvaluateWeightsAlwaysSumToOne(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	cases := []struct {
		name    string
		signals map[string]domain.SignalScore
	}{
		{
			name: "all available",
			signals: map[string]domain.SignalScore{
				domain.SourceCalendar: domain.Score(70),
				domain.SourceTrello:   domain.Score(60),
				domain.SourcePrice:    domain.Score(85),
			},
		},
		{
			name: "calendar down",
			signals: map[string]domain.SignalScore{
				domain.SourceCalendar: domain.Unavailable(),
				domain.SourceTrello:   domain.Score(60),
				domain.SourcePrice:    domain.Score(85),
			},
		},
		{
			name: "calendar and trello down",
			signals: map[string]domain.SignalScore{
				domain.SourceCalendar: domain.Unavailable(),
				domain.SourceTrello:   domain.Unavailable(),
				domain.SourcePrice:    domain.Score(85),
			},
		},
		{
			name: "all three down",
			signals: map[string]domain.SignalScore{
				domain.SourceCalendar: domain.Unavailable(),
				domain.SourceTrello:   domain.Unavailable(),
				domain.SourcePrice:    domain.Unavailable(),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breakdown := uc.Evaluate(80, tc.signals)
			sum := 0.0
			for _, w := range breakdown.Weights {
				sum += w
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("weights sum = %v, want 1.0", sum)
			}
		})
	}
}

func TestEvaluateAllSourcesDownUsesBaseConfidence(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	breakdown := uc.Evaluate(77, map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Unavailable(),
		domain.SourceTrello:   domain.Unavailable(),
		domain.SourcePrice:    domain.Unavailable(),
	})

	if got := breakdown.Weights[domain.SourceAI]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("ai weight = %v, want 1.0", got)
	}
	if breakdown.Final != 77 {
		t.Errorf("final = %d, want 77", breakdown.Final)
	}
}

func TestEvaluateTwoSourcesDown(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	breakdown := uc.Evaluate(80, map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Unavailable(),
		domain.SourceTrello:   domain.Unavailable(),
		domain.SourcePrice:    domain.Score(85),
	})

	if got := breakdown.Weights[domain.SourceAI]; math.Abs(got-0.90) > 1e-9 {
		t.Errorf("ai weight = %v, want 0.90", got)
	}
	// 80*0.90 + 85*0.10 = 80.5, truncated to 80
	if breakdown.Final != 80 {
		t.Errorf("final = %d, want 80", breakdown.Final)
	}
}

func TestEvaluateTruncatesTowardZero(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	breakdown := uc.Evaluate(99, map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Score(99),
		domain.SourceTrello:   domain.Score(99),
		domain.SourcePrice:    domain.Score(98),
	})

	// 99*0.60 + 99*0.20 + 99*0.10 + 98*0.10 = 98.9, truncated to 98
	if breakdown.Final != 98 {
		t.Errorf("final = %d, want 98", breakdown.Final)
	}
}

func TestEvaluateClampsOutOfRangeScores(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)

	breakdown := uc.Evaluate(150, map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Score(-10),
		domain.SourceTrello:   domain.Score(100),
		domain.SourcePrice:    domain.Score(100),
	})

	if breakdown.Final < 0 || breakdown.Final > 100 {
		t.Errorf("final = %d, want within [0,100]", breakdown.Final)
	}
	// 100*0.60 + 0*0.20 + 100*0.10 + 100*0.10 = 80
	if breakdown.Final != 80 {
		t.Errorf("final = %d, want 80", breakdown.Final)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	uc := NewEvaluatorUsecase(DefaultWeights)
	signals := map[string]domain.SignalScore{
		domain.SourceCalendar: domain.Score(70),
		domain.SourceTrello:   domain.Unavailable(),
		domain.SourcePrice:    domain.Score(60),
	}

	first := uc.Evaluate(85, signals)
	for i := 0; i < 10; i++ {
		again := uc.Evaluate(85, signals)
		if again.Final != first.Final {
			t.Fatalf("run %d: final = %d, want %d", i, again.Final, first.Final)
		}
	}
}
