package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option customizes how Load reads the environment.
type Option func(*env.Options)

// WithPrefix prepends prefix to every env tag, e.g. "ADMIN_".
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// WithEnvironment makes Load read from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = vars
	}
}

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings; durations and
// comma-separated slices are handled by caarlos0/env.
//
// Example:
//
//	type Config struct {
//	    BaseURL string        `env:"ADMIN_API_BASE_URL" envDefault:"http://localhost:8000/api/"`
//	    Timeout time.Duration `env:"ADMIN_HTTP_TIMEOUT" envDefault:"30s"`
//	}
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
