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
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CHOOZI_"

// EnvConfigPath names the variable holding an optional YAML file path.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CHOOZI_CONFIG is set
//  3. env (prefix CHOOZI_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CHOOZI_INBOX_SIZE -> inbox_size; underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs error
	if strings.TrimSpace(c.Addr) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig))
	}
	if c.InboxSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: inbox_size must be positive, got %d", ErrInvalidConfig, c.InboxSize))
	}
	if c.OutboxSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: outbox_size must be positive, got %d", ErrInvalidConfig, c.OutboxSize))
	}
	if c.DedupeSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize))
	}
	if c.ShutdownTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: shutdown_timeout must be positive, got %s", ErrInvalidConfig, c.ShutdownTimeout))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat))
	}
	return errs
}
