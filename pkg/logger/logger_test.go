package logger_test

import (
	"context"
	"testing"

	"github.com/okian/physio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		So(err, ShouldBeNil)

		Convey("Then Get returns a usable logger", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)

			// Should not panic at any level.
			ctx := context.Background()
			l.Info(ctx, "info message", logger.String("k", "v"))
			l.Debug(ctx, "debug message", logger.Int("n", 1))
			l.Warn(ctx, "warn message", logger.Float64("f", 1.5))
			l.Error(ctx, "error message", logger.Any("v", struct{}{}))
		})

		Convey("Then Named returns a scoped logger", func() {
			l := logger.Named("hub")
			So(l, ShouldNotBeNil)
			l.Info(context.Background(), "scoped message")
		})

		Convey("When setting the level from a string", func() {
			Convey("Then known levels are accepted", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("info"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString("warning"), ShouldBeNil)
				So(logger.SetLevelString("error"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("Then unknown levels are rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})

		Convey("Then Sync never fails", func() {
			So(logger.Sync(), ShouldBeNil)
		})
	})
}
