package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProviderConfigured is returned when no backend could be initialised.
	ErrNoProviderConfigured = errors.New("no llm provider configured")
	// ErrProviderCallFailed matches every *CallError.
	ErrProviderCallFailed = errors.New("llm provider call failed")
	// ErrProviderNotConfigured is returned by NewProvider when a backend's
	// settings are incomplete.
	ErrProviderNotConfigured = errors.New("llm provider not configured")
)

// CallError reports a failed generation. FallbackFrom is set when the failure
// happened on the retry against the default provider.
type CallError struct {
	Provider     string
	FallbackFrom string
	Err          error
}

func (e *CallError) Error() string {
	if e.FallbackFrom != "" {
		return fmt.Sprintf("llm call via %s failed (fallback from %s): %v", e.Provider, e.FallbackFrom, e.Err)
	}
	return fmt.Sprintf("llm call via %s failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	return target == ErrProviderCallFailed
}

// SchemaParseError is returned when a structured output is not a JSON object.
// Raw holds the text after fence stripping.
type SchemaParseError struct {
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("llm response could not be parsed as JSON: %v (raw: %s)", e.Err, e.Raw)
}

func (e *SchemaParseError) Unwrap() error {
	return e.Err
}
