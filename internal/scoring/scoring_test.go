package scoring

import (
	"math"
	"testing"

	"travel-data-pipeline/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestExchangeRateScore(t *testing.T) {
	tests := []struct {
		name       string
		realtime   *float64
		yearly     *float64
		wantChange *float64
		wantScore  float64
	}{
		{name: "equal rates", realtime: f(1300), yearly: f(1300), wantChange: f(0), wantScore: 50},
		{name: "minus ten", realtime: f(90), yearly: f(100), wantChange: f(-10), wantScore: 100},
		{name: "plus ten", realtime: f(110), yearly: f(100), wantChange: f(10), wantScore: 0},
		{name: "minus fifty clamps", realtime: f(50), yearly: f(100), wantChange: f(-50), wantScore: 100},
		{name: "plus thirty clamps", realtime: f(130), yearly: f(100), wantChange: f(30), wantScore: 0},
		{name: "plus five", realtime: f(105), yearly: f(100), wantChange: f(5), wantScore: 25},
		{name: "rounded change", realtime: f(1351.234), yearly: f(1300), wantChange: f(3.94), wantScore: 30.3},
		{name: "missing yearly", realtime: f(1300), yearly: nil, wantChange: nil, wantScore: 0},
		{name: "missing realtime", realtime: nil, yearly: f(1300), wantChange: nil, wantScore: 0},
		{name: "zero yearly", realtime: f(1300), yearly: f(0), wantChange: nil, wantScore: 0},
		{name: "negative yearly", realtime: f(1300), yearly: f(-5), wantChange: nil, wantScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, score := ExchangeRateScore(tt.realtime, tt.yearly)

			if tt.wantChange == nil {
				if change != nil {
					t.Errorf("expected nil change, got %v", *change)
				}
			} else {
				if change == nil {
					t.Fatalf("expected change %v, got nil", *tt.wantChange)
				}
				if math.Abs(*change-*tt.wantChange) > 1e-9 {
					t.Errorf("change = %v, want %v", *change, *tt.wantChange)
				}
			}

			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestScaleGrowth(t *testing.T) {
	if got := ScaleGrowth(0); got != 0 {
		t.Errorf("ScaleGrowth(0) = %v", got)
	}
	if got := ScaleGrowth(-0.4); got != -0.4 {
		t.Errorf("negative growth should pass through, got %v", got)
	}
	if got := ScaleGrowth(9); math.Abs(got-1) > 1e-12 {
		t.Errorf("ScaleGrowth(9) = %v, want 1", got)
	}
}

func TestNormalizeGrowth(t *testing.T) {
	if got := NormalizeGrowth(-1); got != 0 {
		t.Errorf("negative should normalize to 0, got %v", got)
	}
	if got := NormalizeGrowth(5); got != 50 {
		t.Errorf("NormalizeGrowth(5) = %v, want 50", got)
	}
	if got := NormalizeGrowth(25); got != 100 {
		t.Errorf("should cap at 100, got %v", got)
	}
}

func TestTrendScore(t *testing.T) {
	// log10(1+9) = 1 -> 10 normalized -> 7 + 0.3*50
	if got := TrendScore(9, 50); math.Abs(got-22) > 1e-9 {
		t.Errorf("TrendScore(9, 50) = %v, want 22", got)
	}
	// decline contributes nothing
	if got := TrendScore(-0.5, 40); math.Abs(got-12) > 1e-9 {
		t.Errorf("TrendScore(-0.5, 40) = %v, want 12", got)
	}
	// epsilon growth (prev window empty) saturates the growth part
	if got := TrendScore(1e12, 100); got != 100 {
		t.Errorf("TrendScore should clamp at 100, got %v", got)
	}
}

func TestTrendScore_MonotonicInGrowth(t *testing.T) {
	for _, interest := range []float64{0, 35, 100} {
		prev := -1.0
		for g := 0.0; g <= 1e6; g = g*1.7 + 0.01 {
			got := TrendScore(g, interest)
			if got < prev {
				t.Fatalf("score decreased at growth %v (interest %v): %v < %v", g, interest, got, prev)
			}
			if got < 0 || got > 100 {
				t.Fatalf("score out of bounds: %v", got)
			}
			prev = got
		}
	}
}

func TestSelectMode(t *testing.T) {
	if SelectMode(0.2, true) != domain.ScoringModeFixed {
		t.Error("positive anchor growth should use fixed scoring")
	}
	if SelectMode(0, true) != domain.ScoringModeRelative {
		t.Error("zero anchor growth should use relative scoring")
	}
	if SelectMode(-0.1, true) != domain.ScoringModeRelative {
		t.Error("negative anchor growth should use relative scoring")
	}
	if SelectMode(0.5, false) != domain.ScoringModeRelative {
		t.Error("missing anchor should use relative scoring")
	}
}

func TestScoreTrends_RelativeFallback(t *testing.T) {
	inputs := []TrendInput{
		{Key: "USA", RawGrowth: 1.0, CurrentInterest: 50},
		{Key: "JPN", RawGrowth: 0.5, CurrentInterest: 50},
	}

	mode := SelectMode(-0.1, true)
	results := ScoreTrends(inputs, mode)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Key != "JPN" || results[1].Key != "USA" {
		t.Fatalf("results should be ordered by key: %+v", results)
	}

	// growth range [0, 1], interest range [0, 50]
	if math.Abs(results[0].Final-65) > 1e-9 {
		t.Errorf("JPN relative score = %v, want 65", results[0].Final)
	}
	if math.Abs(results[1].Final-100) > 1e-9 {
		t.Errorf("USA relative score = %v, want 100", results[1].Final)
	}

	// the fixed formula would give a very different value
	if fixed := TrendScore(0.5, 50); math.Abs(fixed-results[0].Final) < 1 {
		t.Errorf("relative score should differ from fixed score %v", fixed)
	}
}

func TestScoreTrends_RelativeNegativeGrowth(t *testing.T) {
	inputs := []TrendInput{
		{Key: "A", RawGrowth: -0.5, CurrentInterest: 0},
		{Key: "B", RawGrowth: -0.25, CurrentInterest: 0},
	}
	results := ScoreTrends(inputs, domain.ScoringModeRelative)

	// range widened to [-0.5, 0]; interest range flat
	if results[0].Final != 0 {
		t.Errorf("A = %v, want 0", results[0].Final)
	}
	if math.Abs(results[1].Final-35) > 1e-9 {
		t.Errorf("B = %v, want 35", results[1].Final)
	}
}

func TestScoreTrends_Fixed(t *testing.T) {
	inputs := []TrendInput{{Key: "A", RawGrowth: 9, CurrentInterest: 50}}
	results := ScoreTrends(inputs, domain.ScoringModeFixed)

	if math.Abs(results[0].Final-22) > 1e-9 {
		t.Errorf("fixed score = %v, want 22", results[0].Final)
	}
	if math.Abs(results[0].Scaled-1) > 1e-12 {
		t.Errorf("scaled = %v, want 1", results[0].Scaled)
	}
}

func TestScoreTrends_Empty(t *testing.T) {
	if got := ScoreTrends(nil, domain.ScoringModeRelative); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}
