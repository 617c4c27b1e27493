package domain

import "time"

// Tuning holds every numeric knob of the cognitive pipeline. DefaultTuning
// reproduces the reference arithmetic exactly.
type Tuning struct {
	// Opinion persistence and promotion.
	MinConfidenceToStore float64
	PromotionConfidence  float64
	PromotionValidations int

	// Revision: confidence *= 1 + (validations-1)*ValidationBoostStep, then
	// *= SupportingFactor or ContradictingFactor per evidence item.
	ValidationBoostStep float64
	SupportingFactor    float64
	ContradictingFactor float64

	// BaseConfidence is used when an analysis carries no confidence.
	BaseConfidence float64
	// EngineConfidence is the fixed confidence the reasoning engine reports.
	EngineConfidence float64
	// SuggestionConfidence: opinions strictly above it get a trading suggestion.
	SuggestionConfidence float64

	OpinionTemperature    float64
	AnalysisTemperature   float64
	SuggestionTemperature float64

	ShortTermTTL         time.Duration
	DefaultRetrieveLimit int
}

func DefaultTuning() Tuning {
	return Tuning{
		MinConfidenceToStore:  0.6,
		PromotionConfidence:   0.8,
		PromotionValidations:  3,
		ValidationBoostStep:   0.1,
		SupportingFactor:      1.1,
		ContradictingFactor:   0.9,
		BaseConfidence:        0.5,
		EngineConfidence:      0.7,
		SuggestionConfidence:  0.7,
		OpinionTemperature:    0.3,
		AnalysisTemperature:   0.3,
		SuggestionTemperature: 0.2,
		ShortTermTTL:          86400 * time.Second,
		DefaultRetrieveLimit:  10,
	}
}

// ClampConfidence bounds p to [0, 1].
func ClampConfidence(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
