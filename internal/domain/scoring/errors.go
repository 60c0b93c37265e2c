package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrEmptyCV        = errors.New("cv text is empty")
	ErrAllAreasFailed = errors.New("every area failed after retries")
)
