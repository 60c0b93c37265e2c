// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers defaults, an optional YAML file, and VITAE_* env vars.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Provider configures the external model provider used for grading.
type Provider struct {
	// APIKey authenticates against the Gemini API.
	APIKey string `koanf:"api_key"`

	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string `koanf:"base_url"`

	// FastModel handles the cheap classification pass and summaries.
	FastModel string `koanf:"fast_model"`

	// AccurateModel handles the full per-area grading.
	AccurateModel string `koanf:"accurate_model"`

	// CallTimeoutMS bounds each individual provider call.
	CallTimeoutMS int `koanf:"call_timeout_ms"`

	// MaxAttempts is the per-call retry budget including the first try.
	MaxAttempts int `koanf:"max_attempts"`

	// RetryBaseDelayMS is the base delay for exponential backoff.
	RetryBaseDelayMS int `koanf:"retry_base_delay_ms"`

	// MaxInFlight bounds concurrent area calls within one submission.
	MaxInFlight int `koanf:"max_in_flight"`

	// GlobalMaxInFlight bounds concurrent provider calls across all
	// submissions.
	GlobalMaxInFlight int `koanf:"global_max_in_flight"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the durable analysis document.
	DataDir string `koanf:"data_dir"`

	// QueueSize bounds the in-memory submission queue for batch jobs.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch submission workers.
	WorkerCount int `koanf:"worker_count"`

	// JobRegistrySize bounds the in-memory batch job table.
	JobRegistrySize int `koanf:"job_registry_size"`

	// MaxListLimit caps GET /analyses?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxBatchSize caps the number of CVs in one batch submission.
	MaxBatchSize int `koanf:"max_batch_size"`

	// HumanReviewMinutes is the assumed manual review time per CV used
	// for time-saved estimates.
	HumanReviewMinutes float64 `koanf:"human_review_minutes"`

	// MinSpecializationLevel drops specializations below this tier:
	// entry, intermediate, advanced, expert.
	MinSpecializationLevel string `koanf:"min_specialization_level"`

	// Provider configures the external grading backend.
	Provider Provider `koanf:"provider"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		DataDir:                "data",
		QueueSize:              256,
		WorkerCount:            runtime.NumCPU(),
		JobRegistrySize:        10_000,
		MaxListLimit:           200,
		MaxBatchSize:           20,
		HumanReviewMinutes:     20,
		MinSpecializationLevel: "intermediate",
		Provider: Provider{
			FastModel:         "gemini-2.0-flash",
			AccurateModel:     "gemini-2.5-pro",
			CallTimeoutMS:     60_000,
			MaxAttempts:       3,
			RetryBaseDelayMS:  500,
			MaxInFlight:       3,
			GlobalMaxInFlight: 12,
		},
	}
}
