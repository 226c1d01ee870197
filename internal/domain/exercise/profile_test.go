package exercise_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/physio/internal/domain/exercise"
	"github.com/okian/physio/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given the built-in registry", t, func() {
		r := exercise.NewRegistry()

		Convey("Then squat and lateral_raise are registered", func() {
			squat, ok := r.Get("squat")
			So(ok, ShouldBeTrue)
			So(squat.Name, ShouldEqual, "Squat")
			So(squat.Targets["leftKnee"].Min, ShouldEqual, 80)
			So(squat.Targets["leftKnee"].Max, ShouldEqual, 110)
			So(squat.Targets["backStraightness"].Weight, ShouldEqual, 0.8)

			raise, ok := r.Get("lateral_raise")
			So(ok, ShouldBeTrue)
			So(raise.Targets["leftShoulder"].Min, ShouldEqual, 160)

			So(len(r.Keys()), ShouldEqual, 2)
		})

		Convey("Then lookup is case-insensitive", func() {
			_, ok := r.Get("SQUAT")
			So(ok, ShouldBeTrue)
			_, ok = r.Get("  Lateral_Raise ")
			So(ok, ShouldBeTrue)
		})

		Convey("Then unknown keys are not found", func() {
			_, ok := r.Get("deadlift")
			So(ok, ShouldBeFalse)
		})

		Convey("Then instructions come from the profile description", func() {
			So(r.Instructions("squat"), ShouldContainSubstring, "80-110")
			So(r.Instructions("deadlift"), ShouldEqual, "")
		})

		Convey("When registering a new profile", func() {
			r.Register("wall_sit", exercise.Profile{
				Name: "Wall Sit",
				Targets: map[string]exercise.Target{
					"leftKnee": {Min: 85, Max: 95, Weight: 1},
				},
			})

			Convey("Then it is available without code changes", func() {
				p, ok := r.Get("wall_sit")
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "Wall Sit")

				engine := exercise.NewEngine(exercise.WithRegistry(r))
				result := engine.Validate(pose.Angles{LeftKnee: 90}, true, nil, "wall_sit")
				So(result.Accuracy, ShouldEqual, 100)
			})
		})
	})
}

func TestRegistryLoadFile(t *testing.T) {
	Convey("Given a YAML profiles file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "exercises.yaml")
		data := []byte(`
lunge:
  name: Forward Lunge
  description: Front knee at 90 degrees
  targets:
    leftKnee:
      min: 80
      max: 100
      weight: 1.0
    backStraightness:
      min: 0.9
      max: 1.0
      weight: 0.5
`)
		So(os.WriteFile(path, data, 0o600), ShouldBeNil)

		r := exercise.NewRegistry()

		Convey("When loading the file", func() {
			err := r.LoadFile(path)

			Convey("Then the profile merges over the built-ins", func() {
				So(err, ShouldBeNil)
				p, ok := r.Get("lunge")
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "Forward Lunge")
				So(p.Targets["leftKnee"].Max, ShouldEqual, 100)
				So(p.Targets["backStraightness"].Weight, ShouldEqual, 0.5)

				// Built-ins survive the merge.
				_, ok = r.Get("squat")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			err := r.LoadFile(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("When a profile has no targets", func() {
			bad := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(bad, []byte("empty:\n  name: Empty\n"), 0o600), ShouldBeNil)
			err := r.LoadFile(bad)
			So(err, ShouldNotBeNil)
		})
	})
}
