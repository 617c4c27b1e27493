package service

import (
	"testing"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/samber/lo"
)

func TestInitialConfidence(t *testing.T) {
	tuning := domain.DefaultTuning()

	tests := []struct {
		name     string
		analysis domain.AnalysisResult
		want     float64
	}{
		{"base when unset", domain.AnalysisResult{}, 0.5},
		{"analysis confidence", domain.AnalysisResult{Confidence: lo.ToPtr(0.7)}, 0.7},
		{"scaled by data quality", domain.AnalysisResult{Confidence: lo.ToPtr(0.75), DataQualityScore: lo.ToPtr(0.9)}, 0.675},
		{"zero data quality", domain.AnalysisResult{Confidence: lo.ToPtr(0.75), DataQualityScore: lo.ToPtr(0.0)}, 0},
		{"clamped high", domain.AnalysisResult{Confidence: lo.ToPtr(1.4)}, 1},
		{"clamped low", domain.AnalysisResult{Confidence: lo.ToPtr(-0.2)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialConfidence(&tt.analysis, tuning)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("InitialConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRevisedConfidence(t *testing.T) {
	tuning := domain.DefaultTuning()
	support := domain.Evidence{Type: "observed_outcome", MatchesBelief: true}
	contradict := domain.Evidence{Type: "observed_outcome", MatchesBelief: false}

	tests := []struct {
		name            string
		current         float64
		validationCount int
		evidence        []domain.Evidence
		want            float64
	}{
		{"first revision supporting", 0.675, 2, []domain.Evidence{support}, 0.81675},
		{"first revision contradicting", 0.675, 2, []domain.Evidence{contradict}, 0.66825},
		{"no boost at one validation", 0.5, 1, []domain.Evidence{support}, 0.55},
		{"no evidence still boosts", 0.5, 3, nil, 0.6},
		{"mixed evidence", 0.5, 2, []domain.Evidence{support, contradict}, 0.5 * 1.1 * 1.1 * 0.9},
		{"clamped to one", 0.81675, 3, []domain.Evidence{support}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RevisedConfidence(tt.current, tt.validationCount, tt.evidence, tuning)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("RevisedConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldPromote(t *testing.T) {
	tuning := domain.DefaultTuning()

	tests := []struct {
		confidence      float64
		validationCount int
		want            bool
	}{
		{0.8, 3, true},
		{1.0, 5, true},
		{0.79, 3, false},
		{0.95, 2, false},
	}
	for _, tt := range tests {
		if got := ShouldPromote(tt.confidence, tt.validationCount, tuning); got != tt.want {
			t.Errorf("ShouldPromote(%v, %d) = %v, want %v", tt.confidence, tt.validationCount, got, tt.want)
		}
	}
}
