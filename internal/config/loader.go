package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/vitae/internal/domain/model"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VITAE_CONFIG is set
//  3. env (prefix VITAE_, nested keys split on "__")
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("VITAE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VITAE_ADDR, VITAE_PROVIDER__API_KEY, ...
	// Double underscore separates nesting levels; single underscores are
	// preserved to match koanf tags on the struct.
	envProvider := env.Provider("VITAE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vitae_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.JobRegistrySize < 1:
		return fmt.Errorf("%w: job_registry_size must be positive", ErrInvalidConfig)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	case c.HumanReviewMinutes < 0:
		return fmt.Errorf("%w: human_review_minutes must not be negative", ErrInvalidConfig)
	case c.Provider.MaxAttempts < 1:
		return fmt.Errorf("%w: provider.max_attempts must be positive", ErrInvalidConfig)
	case c.Provider.MaxInFlight < 1:
		return fmt.Errorf("%w: provider.max_in_flight must be positive", ErrInvalidConfig)
	}
	if _, ok := model.ParseLevel(c.MinSpecializationLevel); !ok {
		return fmt.Errorf("%w: unknown min_specialization_level %q", ErrInvalidConfig, c.MinSpecializationLevel)
	}
	return nil
}
