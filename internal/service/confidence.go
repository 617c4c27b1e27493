package service

import "github.com/Harshitk-cp/augur/internal/domain"

// InitialConfidence is the confidence of a freshly formed opinion: the
// analysis confidence (or the base value), times the data quality score when
// one is reported, clamped to [0, 1].
func InitialConfidence(analysis *domain.AnalysisResult, t domain.Tuning) float64 {
	confidence := t.BaseConfidence
	if analysis.Confidence != nil {
		confidence = *analysis.Confidence
	}
	if analysis.DataQualityScore != nil {
		confidence *= *analysis.DataQualityScore
	}
	return domain.ClampConfidence(confidence)
}

// RevisedConfidence applies one revision. validationCount is the count after
// the increment. The multiplication order is fixed:
//
//	confidence *= 1 + (validationCount-1)*ValidationBoostStep
//	confidence *= SupportingFactor or ContradictingFactor, per evidence item
//
// and the result is clamped to [0, 1].
func RevisedConfidence(current float64, validationCount int, evidence []domain.Evidence, t domain.Tuning) float64 {
	confidence := current
	confidence *= 1.0 + float64(validationCount-1)*t.ValidationBoostStep
	for _, e := range evidence {
		if e.MatchesBelief {
			confidence *= t.SupportingFactor
		} else {
			confidence *= t.ContradictingFactor
		}
	}
	return domain.ClampConfidence(confidence)
}

// ShouldPromote reports whether an opinion has earned the core tier.
func ShouldPromote(confidence float64, validationCount int, t domain.Tuning) bool {
	return confidence >= t.PromotionConfidence && validationCount >= t.PromotionValidations
}
