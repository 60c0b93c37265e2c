package repository

import "errors"

// Sentinel kinds for analysis store errors.
var (
	ErrNotFound         = errors.New("analysis not found")
	ErrConflict         = errors.New("analysis id already exists")
	ErrClosed           = errors.New("store is closed")
	ErrIncompleteScores = errors.New("record does not cover the full area set")
)
