package metrics_test

import (
	"testing"

	"github.com/okian/physio/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGlobalMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then the registry is available", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})

		Convey("When recording session metrics", func() {
			// None of these should panic; values are asserted by
			// scraping the registry below.
			metrics.RecordSessionCreated()
			metrics.RecordSessionEnded()
			metrics.UpdateActiveSessions(2)
			metrics.UpdateParticipants(5)
			metrics.RecordJoinRejected("capacity")
			metrics.RecordJoinRejected("not_found")

			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)

			names := make(map[string]bool)
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["physio_session_sessions_created_total"], ShouldBeTrue)
			So(names["physio_session_joins_rejected_total"], ShouldBeTrue)
		})

		Convey("When recording realtime metrics", func() {
			metrics.RecordMessageRouted("feedback")
			metrics.RecordMessageRouted("accuracy_update")
			metrics.RecordRouteError()
			metrics.UpdateConnections(4)

			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool)
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["physio_realtime_messages_routed_total"], ShouldBeTrue)
			So(names["physio_realtime_connections"], ShouldBeTrue)
		})

		Convey("When recording validation metrics", func() {
			metrics.RecordFrameValidated()
			metrics.RecordAccuracyScore(85)
			metrics.RecordValidationLatency(1.2)

			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool)
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["physio_validation_accuracy_score"], ShouldBeTrue)
		})

		Convey("When recording HTTP and export metrics", func() {
			metrics.RecordHTTPRequest("sessions", "POST", "200")
			metrics.RecordHTTPRequestDuration("sessions", "POST", "200", 3.5)
			metrics.RecordReportExported()
			metrics.RecordExportError()
			metrics.UpdateSystemMemoryUsage(1024)
			metrics.UpdateSystemGoroutineCount(10)

			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool)
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["physio_http_requests_total"], ShouldBeTrue)
			So(names["physio_export_reports_exported_total"], ShouldBeTrue)
		})
	})
}

func TestNewManager(t *testing.T) {
	Convey("Given a manager with a private registry", t, func() {
		// A fresh registry avoids duplicate registration with the
		// global manager.
		reg := metrics.GetRegistry()
		So(reg, ShouldNotBeNil)

		Convey("Then option constructors return valid options", func() {
			So(metrics.WithNamespace("other"), ShouldNotBeNil)
			So(metrics.WithSubsystem("other"), ShouldNotBeNil)
			So(metrics.WithHistogramBuckets([]float64{1, 2}), ShouldNotBeNil)
			So(metrics.WithPrometheusRegistry(nil), ShouldNotBeNil)
		})
	})
}
