package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/choozi/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CHOOZI_ADDR", ":8080")
			_ = os.Setenv("CHOOZI_INBOX_SIZE", "16")
			_ = os.Setenv("CHOOZI_SOUND_ENABLED", "false")
			_ = os.Setenv("CHOOZI_SHUTDOWN_TIMEOUT", "2s")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.InboxSize, convey.ShouldEqual, 16)
				convey.So(cfg.SoundEnabled, convey.ShouldBeFalse)
				convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
log_format: json
outbox_size: 8
haptics_enabled: false
`)
			_ = os.Setenv("CHOOZI_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 8)
				convey.So(cfg.HapticsEnabled, convey.ShouldBeFalse)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("CHOOZI_ADDR", ":7070")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("CHOOZI_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			_ = os.Setenv("CHOOZI_DEDUPE_SIZE", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "choozi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"CHOOZI_CONFIG",
		"CHOOZI_ADDR",
		"CHOOZI_LOG_LEVEL",
		"CHOOZI_LOG_FORMAT",
		"CHOOZI_INBOX_SIZE",
		"CHOOZI_OUTBOX_SIZE",
		"CHOOZI_DEDUPE_SIZE",
		"CHOOZI_SOUND_ENABLED",
		"CHOOZI_HAPTICS_ENABLED",
		"CHOOZI_METRICS_ENABLED",
		"CHOOZI_SHUTDOWN_TIMEOUT",
	} {
		_ = os.Unsetenv(key)
	}
}
