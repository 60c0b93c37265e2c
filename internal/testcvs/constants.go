package testcvs

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Runner configuration constants.
const (
	DefaultPollInterval  = 2 * time.Second
	MaxPollDuration      = 10 * time.Minute
	PercentageMultiplier = 100
)
