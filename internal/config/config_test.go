package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/choozi/internal/config"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/multierr"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.InboxSize, convey.ShouldEqual, 1024)
			convey.So(cfg.OutboxSize, convey.ShouldEqual, 64)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 4096)
			convey.So(cfg.SoundEnabled, convey.ShouldBeTrue)
			convey.So(cfg.HapticsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 5*time.Second)
		})

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several invalid fields", t, func() {
		cfg := config.New()
		cfg.Addr = " "
		cfg.InboxSize = 0
		cfg.OutboxSize = -1
		cfg.LogFormat = "xml"

		err := cfg.Validate()

		convey.Convey("Then every problem is reported", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(multierr.Errors(err), convey.ShouldHaveLength, 4)
			convey.So(err.Error(), convey.ShouldContainSubstring, "inbox_size")
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
		})
	})
}
