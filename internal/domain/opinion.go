package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Evidence types produced inside the pipeline.
const (
	EvidenceAnalysisResult  = "analysis_result"
	EvidenceObservedOutcome = "observed_outcome"
)

// Evidence is a single observation that supports or contradicts a belief.
type Evidence struct {
	Type          string         `json:"type"`
	Content       map[string]any `json:"content,omitempty"`
	Source        string         `json:"source,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	MatchesBelief bool           `json:"matches_belief"`
}

func (e Evidence) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: evidence type is required", ErrValidation)
	}
	return nil
}

// Opinion is a confidence-scored belief about a topic. Evidence is append-only
// and Confidence is only ever recomputed by the opinion engine.
type Opinion struct {
	ID              string         `json:"id"`
	Topic           string         `json:"topic"`
	Belief          string         `json:"belief"`
	Confidence      float64        `json:"confidence"`
	Evidence        []Evidence     `json:"evidence"`
	FormedAt        time.Time      `json:"formed_at"`
	LastUpdated     time.Time      `json:"last_updated"`
	ValidationCount int            `json:"validation_count"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ToContent renders the opinion as a memory content map.
func (o *Opinion) ToContent() (map[string]any, error) {
	return toMap(o)
}

// OpinionFromContent rebuilds an opinion from a stored memory content map.
func OpinionFromContent(content map[string]any) (*Opinion, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal opinion content: %w", err)
	}
	var o Opinion
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: opinion content: %v", ErrValidation, err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("%w: opinion content has no id", ErrValidation)
	}
	return &o, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
