package domain

import "errors"

var (
	// ErrNotFound is returned when an opinion or memory id has no stored record.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed intents, evidence or stored records.
	ErrValidation = errors.New("validation failed")
)
