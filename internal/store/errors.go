package store

import "github.com/Harshitk-cp/augur/internal/domain"

// ErrNotFound aliases the domain sentinel so callers can match either.
var ErrNotFound = domain.ErrNotFound
