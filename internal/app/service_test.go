package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/physio/internal/adapters/http/api"
	service "github.com/okian/physio/internal/app"
	"github.com/okian/physio/internal/session"
	"github.com/okian/physio/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithReportDir(t.TempDir()),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t, service.WithMaxPatients(2))

		Convey("When a session is created", func() {
			view, err := svc.CreateSession(ctx, "Dr. Adams", "")

			Convey("Then it uses the default exercise and exposes ids", func() {
				So(err, ShouldBeNil)
				So(view.Exercise, ShouldEqual, "squat")
				So(view.SessionCode, ShouldHaveLength, 6)
				So(view.TherapistID, ShouldEqual, "therapist_"+view.SessionCode)
				So(view.State, ShouldEqual, "created")
			})

			Convey("And patients join up to capacity", func() {
				j1, err1 := svc.JoinSession(ctx, view.SessionCode, "Sam")
				j2, err2 := svc.JoinSession(ctx, view.SessionCode, "Alex")
				_, err3 := svc.JoinSession(ctx, view.SessionCode, "Kim")

				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldEqual, session.ErrSessionFull)
				So(j1.PatientID, ShouldNotEqual, j2.PatientID)
				So(j1.AccuracyIntervalMS, ShouldEqual, 2000)
				So(j1.FeedbackTTLMS, ShouldEqual, 5000)
				So(j1.Instructions, ShouldNotBeEmpty)

				described, err := svc.DescribeSession(ctx, view.SessionCode)
				So(err, ShouldBeNil)
				So(described.State, ShouldEqual, "active")
				So(described.PatientCount, ShouldEqual, 2)
			})
		})

		Convey("When creating with an unknown exercise", func() {
			_, err := svc.CreateSession(ctx, "Dr. Adams", "deadlift")

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, api.ErrUnknownExercise)
			})
		})

		Convey("When describing an unknown code", func() {
			_, err := svc.DescribeSession(ctx, "NOPE42")
			So(err, ShouldEqual, session.ErrNotFound)
		})
	})
}

func TestServiceEndAndExport(t *testing.T) {
	Convey("Given a session with recorded activity", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := startService(t, service.WithReportDir(dir))

		view, err := svc.CreateSession(ctx, "Dr. Adams", "squat")
		So(err, ShouldBeNil)
		joined, err := svc.JoinSession(ctx, view.SessionCode, "Sam")
		So(err, ShouldBeNil)

		So(svc.RecordPose(ctx, view.SessionCode, joined.PatientID, 1700000000000, map[string]any{
			"accuracy": 84.0,
		}), ShouldBeNil)

		Convey("When the session is ended", func() {
			rep, err := svc.EndSession(ctx, view.SessionCode)

			Convey("Then the report carries the patient's activity", func() {
				So(err, ShouldBeNil)
				So(rep.SessionCode, ShouldEqual, view.SessionCode)
				So(rep.Patients, ShouldHaveLength, 1)
				So(rep.Patients[0].TotalFrames, ShouldEqual, 1)
			})

			Convey("Then a report file is exported", func() {
				So(err, ShouldBeNil)
				entries, readErr := os.ReadDir(dir)
				So(readErr, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Name(), ShouldStartWith, "report_"+view.SessionCode)
				So(filepath.Ext(entries[0].Name()), ShouldEqual, ".json")
			})

			Convey("Then the code is gone from the registry", func() {
				_, getErr := svc.DescribeSession(ctx, view.SessionCode)
				So(getErr, ShouldEqual, session.ErrNotFound)

				_, joinErr := svc.JoinSession(ctx, view.SessionCode, "Late")
				So(joinErr, ShouldEqual, session.ErrNotFound)
			})

			Convey("Then ending again reports not found", func() {
				_, againErr := svc.EndSession(ctx, view.SessionCode)
				So(againErr, ShouldEqual, session.ErrNotFound)
			})
		})

		Convey("When the service stops with the session still open", func() {
			svc.Stop()

			Convey("Then the report is exported on shutdown", func() {
				entries, readErr := os.ReadDir(dir)
				So(readErr, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})
}

func TestServicePoseRecording(t *testing.T) {
	Convey("Given a running session", t, func() {
		ctx := context.Background()
		svc := startService(t)

		view, err := svc.CreateSession(ctx, "Dr. Adams", "squat")
		So(err, ShouldBeNil)
		joined, err := svc.JoinSession(ctx, view.SessionCode, "Sam")
		So(err, ShouldBeNil)

		Convey("When a pose is recorded for an unknown member", func() {
			err := svc.RecordPose(ctx, view.SessionCode, "patient_ghost", 0, map[string]any{"x": 1.0})
			So(err, ShouldEqual, session.ErrUnknownPatient)
		})

		Convey("When poses are recorded for a member", func() {
			for i := 0; i < 3; i++ {
				So(svc.RecordPose(ctx, view.SessionCode, joined.PatientID, int64(i), map[string]any{
					"accuracy": 80.0,
				}), ShouldBeNil)
			}

			rep, err := svc.SessionReport(ctx, view.SessionCode)
			So(err, ShouldBeNil)
			So(rep.Patients, ShouldHaveLength, 1)
			So(rep.Patients[0].TotalFrames, ShouldEqual, 3)
			So(rep.Patients[0].AverageAccuracy, ShouldEqual, 80)
		})
	})
}

func TestServiceStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t)

		_, err := svc.CreateSession(ctx, "Dr. Adams", "squat")
		So(err, ShouldBeNil)

		Convey("When stats are read", func() {
			stats := svc.GetStats()

			Convey("Then they reflect the live state", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["activeSessions"], ShouldEqual, 1)
				So(stats["participants"], ShouldEqual, 1)
			})
		})
	})
}
