package domain

import (
	"time"
)

type MemoryType string

const (
	MemoryTypeShortTerm MemoryType = "short_term"
	MemoryTypeCore      MemoryType = "core"
)

// MemoryTypeAll is a retrieval selector only; items never carry it.
const MemoryTypeAll MemoryType = "all"

func ValidMemoryType(t string) bool {
	switch MemoryType(t) {
	case MemoryTypeShortTerm, MemoryTypeCore:
		return true
	}
	return false
}

// ValidMemorySelector reports whether t can be used to pick tiers on retrieval.
func ValidMemorySelector(t string) bool {
	return t == string(MemoryTypeAll) || ValidMemoryType(t)
}

// MemoryItem is one record held in the short-term or core tier.
// MemoryType only ever moves from short_term to core.
type MemoryItem struct {
	ID              string         `json:"id"`
	Content         map[string]any `json:"content"`
	Source          string         `json:"source"`
	Timestamp       time.Time      `json:"timestamp"`
	MemoryType      MemoryType     `json:"memory_type"`
	Confidence      float64        `json:"confidence"`
	ValidationCount int            `json:"validation_count"`
	Tags            []string       `json:"tags"`
	Metadata        map[string]any `json:"metadata"`
}

// IsCore reports whether the item has been promoted.
func (m *MemoryItem) IsCore() bool {
	return m.MemoryType == MemoryTypeCore
}

// Pattern is a recurring structural signature observed in market data.
// Nothing produces patterns yet; see LearningService.IdentifyPatterns.
type Pattern struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Confidence      float64          `json:"confidence"`
	Occurrences     []map[string]any `json:"occurrences"`
	ValidationCount int              `json:"validation_count"`
	LastObserved    *time.Time       `json:"last_observed,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}
