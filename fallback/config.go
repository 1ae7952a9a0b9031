package fallback

import (
	"errors"
	"fmt"
	"time"
)

// Defaults.
const (
	DefaultMinQuality     = 60.0
	DefaultMaxAttempts    = 3
	DefaultMaxWorkers     = 4
	DefaultEngineTimeout  = 2 * time.Minute
	DefaultOverallTimeout = 5 * time.Minute
)

// Config controls the fallback strategy.
type Config struct {
	// MinQuality is the score (0-100) a result needs to be accepted
	// without trying further engines.
	MinQuality float64 `koanf:"min_quality"`

	// MaxAttempts bounds engine invocations in sequential mode.
	MaxAttempts int `koanf:"max_attempts"`

	// Parallel races all candidates instead of trying them in order.
	Parallel bool `koanf:"parallel"`

	// MaxWorkers bounds the parallel worker pool.
	MaxWorkers int `koanf:"max_workers"`

	// EngineTimeout bounds a single engine call. Zero means no limit.
	EngineTimeout time.Duration `koanf:"engine_timeout"`

	// OverallTimeout bounds a parallel race. Zero means no limit.
	OverallTimeout time.Duration `koanf:"overall_timeout"`
}

// DefaultConfig returns a sequential configuration with default limits.
func DefaultConfig() Config {
	return Config{
		MinQuality:     DefaultMinQuality,
		MaxAttempts:    DefaultMaxAttempts,
		MaxWorkers:     DefaultMaxWorkers,
		EngineTimeout:  DefaultEngineTimeout,
		OverallTimeout: DefaultOverallTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.MinQuality < 0 || c.MinQuality > 100 {
		errs = append(errs, fmt.Errorf("min_quality must be within 0-100, got %v", c.MinQuality))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers))
	}
	if c.EngineTimeout < 0 {
		errs = append(errs, errors.New("engine_timeout must not be negative"))
	}
	if c.OverallTimeout < 0 {
		errs = append(errs, errors.New("overall_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Mode names the dispatch mode.
func (c Config) Mode() string {
	if c.Parallel {
		return "parallel"
	}
	return "sequential"
}
