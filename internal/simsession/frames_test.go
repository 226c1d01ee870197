package simsession

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/physio/internal/domain/exercise"
	"github.com/okian/physio/internal/domain/pose"
)

func scoreFrame(frame []pose.Landmark, exerciseKey string) exercise.Result {
	engine := exercise.NewEngine()
	angles, ok := pose.JointAngles(frame)
	return engine.Validate(angles, ok, frame, exerciseKey)
}

func TestSyntheticFrames(t *testing.T) {
	Convey("Given the synthetic frame generators", t, func() {
		Convey("When a full-depth squat frame is scored", func() {
			result := scoreFrame(squatFrame(1), "squat")

			Convey("Then it validates as correct form", func() {
				So(result.IsValid, ShouldBeTrue)
				So(result.Accuracy, ShouldBeGreaterThanOrEqualTo, 70)
			})
		})

		Convey("When a standing frame is scored as a squat", func() {
			result := scoreFrame(squatFrame(0), "squat")

			Convey("Then the knees score incorrect", func() {
				So(result.IsValid, ShouldBeFalse)
				So(result.Errors, ShouldNotBeEmpty)
			})
		})

		Convey("When a full lateral raise frame is scored", func() {
			result := scoreFrame(raiseFrame(1), "lateral_raise")

			Convey("Then both shoulders land in the target band", func() {
				So(result.IsValid, ShouldBeTrue)
				So(result.Accuracy, ShouldEqual, 100)
			})
		})

		Convey("When arms hang down in a lateral raise", func() {
			result := scoreFrame(raiseFrame(0), "lateral_raise")

			Convey("Then the frame scores zero", func() {
				So(result.Accuracy, ShouldEqual, 0)
				So(result.IsValid, ShouldBeFalse)
			})
		})

		Convey("When a frame sequence is generated", func() {
			frames := generateFrames("squat", 40, 7)

			Convey("Then every frame is full-size and jitter keeps them distinct", func() {
				So(frames, ShouldHaveLength, 40)
				for _, frame := range frames {
					So(frame, ShouldHaveLength, pose.FrameSize)
				}
				So(frames[0], ShouldNotResemble, frames[framesPerCycle])
			})

			Convey("Then the cycle passes through valid form", func() {
				best := 0
				for _, frame := range frames {
					if r := scoreFrame(frame, "squat"); r.Accuracy > best {
						best = r.Accuracy
					}
				}
				So(best, ShouldBeGreaterThanOrEqualTo, 70)
			})
		})
	})
}
