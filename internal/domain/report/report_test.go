package report_test

import (
	"fmt"
	"testing"

	"github.com/okian/physio/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleWithErrors(errs ...string) report.PoseSample {
	list := make([]any, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	return report.PoseSample{Data: map[string]any{"errors": list}}
}

func TestCommonErrors(t *testing.T) {
	Convey("Given samples with recurring error lines", t, func() {
		samples := []report.PoseSample{
			sampleWithErrors("knee too shallow", "back bent"),
			sampleWithErrors("knee too shallow"),
			sampleWithErrors("knee too shallow", "back bent", "arm low"),
			{Data: map[string]any{"accuracy": 80.0}},
			{Data: nil},
		}

		errs := report.CommonErrors(samples)

		Convey("Then errors are ordered by frequency", func() {
			So(errs, ShouldResemble, []string{"knee too shallow", "back bent", "arm low"})
		})
	})

	Convey("Given more than five distinct errors", t, func() {
		samples := make([]report.PoseSample, 0, 8)
		for i := 0; i < 8; i++ {
			samples = append(samples, sampleWithErrors(fmt.Sprintf("error-%d", i)))
		}

		errs := report.CommonErrors(samples)

		Convey("Then only the top five are kept", func() {
			So(len(errs), ShouldEqual, 5)
		})
	})

	Convey("Given no samples", t, func() {
		So(report.CommonErrors(nil), ShouldBeEmpty)
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given fewer samples than the display cap", t, func() {
		samples := []report.PoseSample{{UserID: "p1"}, {UserID: "p2"}}

		s := report.Summarize(samples)

		Convey("Then all samples are kept", func() {
			So(s.TotalSamples, ShouldEqual, 2)
			So(len(s.SamplePoses), ShouldEqual, 2)
		})
	})

	Convey("Given more samples than the display cap", t, func() {
		samples := make([]report.PoseSample, 25)
		for i := range samples {
			samples[i] = report.PoseSample{Timestamp: float64(i)}
		}

		s := report.Summarize(samples)

		Convey("Then the first ten are kept with the full count", func() {
			So(s.TotalSamples, ShouldEqual, 25)
			So(len(s.SamplePoses), ShouldEqual, 10)
			So(s.SamplePoses[0].Timestamp, ShouldEqual, 0)
			So(s.SamplePoses[9].Timestamp, ShouldEqual, 9)
		})
	})
}
