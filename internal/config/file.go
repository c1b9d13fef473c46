package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the YAML shape accepted through CONFIG_FILE. Only tuning
// knobs live here; endpoints and credentials stay in the environment.
type fileOverlay struct {
	Matching struct {
		MinScore          *int `yaml:"min_score"`
		PotentialMinScore *int `yaml:"potential_min_score"`
		BatchWorkers      *int `yaml:"batch_workers"`
	} `yaml:"matching"`
	AI struct {
		AttemptTimeout *time.Duration `yaml:"attempt_timeout"`
		MaxAttempts    *int           `yaml:"max_attempts"`
		BackoffInitial *time.Duration `yaml:"backoff_initial"`
		BackoffMax     *time.Duration `yaml:"backoff_max"`
		RateLimitRPS   *float64       `yaml:"rate_limit_rps"`
		BreakerEnabled *bool          `yaml:"breaker_enabled"`
	} `yaml:"ai"`
	Discovery struct {
		CacheTTL *time.Duration `yaml:"cache_ttl"`
	} `yaml:"discovery"`
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setIfPresent(&cfg.MatchMinScore, overlay.Matching.MinScore)
	setIfPresent(&cfg.PotentialMinScore, overlay.Matching.PotentialMinScore)
	setIfPresent(&cfg.BatchWorkers, overlay.Matching.BatchWorkers)

	setIfPresent(&cfg.AIAttemptTimeout, overlay.AI.AttemptTimeout)
	setIfPresent(&cfg.AIMaxAttempts, overlay.AI.MaxAttempts)
	setIfPresent(&cfg.AIBackoffInitial, overlay.AI.BackoffInitial)
	setIfPresent(&cfg.AIBackoffMax, overlay.AI.BackoffMax)
	setIfPresent(&cfg.AIRateLimitRPS, overlay.AI.RateLimitRPS)
	setIfPresent(&cfg.AIBreakerEnabled, overlay.AI.BreakerEnabled)

	setIfPresent(&cfg.DiscoveryCacheTTL, overlay.Discovery.CacheTTL)
	return nil
}

func setIfPresent[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}
