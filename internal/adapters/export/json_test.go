package export_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/physio/internal/adapters/export"
	"github.com/okian/physio/internal/domain/report"
)

func TestExporterWrite(t *testing.T) {
	Convey("Given an exporter over a temp directory", t, func() {
		dir := filepath.Join(t.TempDir(), "reports")
		at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		exp := export.New(dir, export.WithClock(func() time.Time { return at }))

		rep := report.Report{
			SessionCode:   "AB12CD",
			TherapistName: "Dr. Adams",
			CreatedAt:     at.Add(-30 * time.Minute),
			EndedAt:       at,
		}

		Convey("When a report is written", func() {
			path, err := exp.Write(rep)

			Convey("Then the file lands under the report dir with a deterministic name", func() {
				So(err, ShouldBeNil)
				So(filepath.Base(path), ShouldEqual, "report_AB12CD_1741597200.json")
				So(filepath.Dir(path), ShouldEqual, dir)
			})

			Convey("Then the document round-trips", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)

				var got report.Report
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.SessionCode, ShouldEqual, "AB12CD")
				So(got.TherapistName, ShouldEqual, "Dr. Adams")
			})
		})

		Convey("When the same code is exported at a later time", func() {
			first, err1 := exp.Write(rep)

			later := export.New(dir, export.WithClock(func() time.Time { return at.Add(time.Hour) }))
			second, err2 := later.Write(rep)

			Convey("Then both files exist side by side", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldNotEqual, second)
				for _, p := range []string{first, second} {
					_, statErr := os.Stat(p)
					So(statErr, ShouldBeNil)
				}
			})
		})
	})
}
