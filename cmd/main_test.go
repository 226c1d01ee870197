package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/physio/internal/adapters/http/api"
	app "github.com/okian/physio/internal/app"
	"github.com/okian/physio/internal/config"
	"github.com/okian/physio/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			// Test with environment variables
			_ = os.Setenv("PHYSIO_ADDR", ":8080")
			_ = os.Setenv("PHYSIO_MAX_PATIENTS", "5")
			_ = os.Setenv("PHYSIO_SESSION_CODE_LENGTH", "8")
			defer func() {
				_ = os.Unsetenv("PHYSIO_ADDR")
				_ = os.Unsetenv("PHYSIO_MAX_PATIENTS")
				_ = os.Unsetenv("PHYSIO_SESSION_CODE_LENGTH")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxPatients, convey.ShouldEqual, 5)
				convey.So(cfg.SessionCodeLength, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithMaxPatients(5),
					app.WithCodeLength(8),
					app.WithReportDir(t.TempDir()),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New(app.WithReportDir(t.TempDir()))
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			router := chi.NewRouter()
			api.NewServer(svc).Register(router)

			srv := &http.Server{
				Addr:              ":0",
				Handler:           router,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			convey.Convey("Then the server should carry the expected timeouts", func() {
				convey.So(srv.ReadTimeout, convey.ShouldEqual, 10*time.Second)
				convey.So(srv.WriteTimeout, convey.ShouldEqual, 10*time.Second)
				convey.So(srv.IdleTimeout, convey.ShouldEqual, 60*time.Second)
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, 5*time.Second)
			})
		})
	})
}
