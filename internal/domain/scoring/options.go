package scoring

import (
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the retry policy for per-area grading calls.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithMaxInFlight bounds concurrent area calls within one submission.
func WithMaxInFlight(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// WithGlobalLimit bounds concurrent provider calls across all
// submissions sharing this orchestrator.
func WithGlobalLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.globalSem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMinSpecializationLevel drops specialization findings below level.
func WithMinSpecializationLevel(level model.Level) Option {
	return func(o *Orchestrator) {
		o.minLevel = level
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}
