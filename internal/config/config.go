// Package config defines process configuration and how it is loaded.
//
// Game rules (timings, palette, winner rule) are constants of the game
// package and deliberately not part of this struct.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the local renderer bridge listen address.
	Addr string `koanf:"addr"`

	// InboxSize bounds the session command inbox.
	InboxSize int `koanf:"inbox_size"`

	// OutboxSize bounds the audio/haptic request outbox.
	OutboxSize int `koanf:"outbox_size"`

	// DedupeSize sets how many touch batch ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// SoundEnabled is the initial reveal sound preference.
	SoundEnabled bool `koanf:"sound_enabled"`

	// HapticsEnabled controls whether haptic requests are published.
	HapticsEnabled bool `koanf:"haptics_enabled"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            "127.0.0.1:9080",
		InboxSize:       1024,
		OutboxSize:      64,
		DedupeSize:      4096,
		SoundEnabled:    true,
		HapticsEnabled:  true,
		MetricsEnabled:  true,
		ShutdownTimeout: 5 * time.Second,
	}
}
