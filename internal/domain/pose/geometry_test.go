package pose_test

import (
	"testing"

	"github.com/okian/physio/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-6

// frame returns a full-size frame with every landmark at the origin.
func frame() []pose.Landmark {
	return make([]pose.Landmark, pose.FrameSize)
}

func at(x, y, z float64) pose.Landmark {
	return pose.Landmark{X: x, Y: y, Z: z, Visibility: 1}
}

func TestAngleBetween(t *testing.T) {
	Convey("Given three points forming a right angle", t, func() {
		a := at(1, 0, 0)
		b := at(0, 0, 0)
		c := at(0, 1, 0)

		Convey("Then the angle is 90 degrees", func() {
			So(pose.AngleBetween(a, b, c), ShouldAlmostEqual, 90, epsilon)
		})
	})

	Convey("Given colinear points in the same direction", t, func() {
		a := at(1, 1, 0)
		b := at(0, 0, 0)
		c := at(2, 2, 0)

		Convey("Then the angle is 0 degrees", func() {
			So(pose.AngleBetween(a, b, c), ShouldAlmostEqual, 0, epsilon)
		})
	})

	Convey("Given colinear points in opposite directions", t, func() {
		a := at(-1, 0, 0)
		b := at(0, 0, 0)
		c := at(1, 0, 0)

		Convey("Then the angle is 180 degrees", func() {
			So(pose.AngleBetween(a, b, c), ShouldAlmostEqual, 180, epsilon)
		})
	})

	Convey("Given a degenerate configuration", t, func() {
		b := at(0.5, 0.5, 0)

		Convey("When a coincides with the vertex", func() {
			So(pose.AngleBetween(b, b, at(1, 0, 0)), ShouldEqual, 0)
		})

		Convey("When c coincides with the vertex", func() {
			So(pose.AngleBetween(at(1, 0, 0), b, b), ShouldEqual, 0)
		})

		Convey("When all three points coincide", func() {
			So(pose.AngleBetween(b, b, b), ShouldEqual, 0)
		})
	})

	Convey("Given near-colinear points that round the cosine above 1", t, func() {
		// Without clamping acos would return NaN here.
		a := at(0.1, 0.2, 0.3)
		b := at(0, 0, 0)
		c := at(0.2, 0.4, 0.6)

		angle := pose.AngleBetween(a, b, c)

		Convey("Then the result stays a real number", func() {
			So(angle, ShouldAlmostEqual, 0, 1e-3)
		})
	})
}

func TestJointAngles(t *testing.T) {
	Convey("Given a frame with the wrong number of landmarks", t, func() {
		angles, ok := pose.JointAngles(make([]pose.Landmark, 10))

		Convey("Then no angle set is produced", func() {
			So(ok, ShouldBeFalse)
			So(angles, ShouldResemble, pose.Angles{})
		})

		Convey("And a nil frame behaves the same", func() {
			_, ok := pose.JointAngles(nil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a full frame with a bent left knee", t, func() {
		f := frame()
		f[pose.LeftHip] = at(0.5, 0.4, 0)
		f[pose.LeftKnee] = at(0.5, 0.6, 0)
		f[pose.LeftAnkle] = at(0.7, 0.6, 0)

		angles, ok := pose.JointAngles(f)

		Convey("Then the left knee angle matches the geometry", func() {
			So(ok, ShouldBeTrue)
			So(angles.LeftKnee, ShouldAlmostEqual, 90, epsilon)
		})

		Convey("And the angle is reachable through Lookup", func() {
			v, found := angles.Lookup("leftKnee")
			So(found, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 90, epsilon)
		})

		Convey("And unknown joints are not found", func() {
			_, found := angles.Lookup("tail")
			So(found, ShouldBeFalse)
		})
	})

	Convey("Given a straight right arm", t, func() {
		f := frame()
		f[pose.RightShoulder] = at(0.6, 0.3, 0)
		f[pose.RightElbow] = at(0.6, 0.45, 0)
		f[pose.RightWrist] = at(0.6, 0.6, 0)

		angles, ok := pose.JointAngles(f)

		Convey("Then the right elbow reads fully extended", func() {
			So(ok, ShouldBeTrue)
			So(angles.RightElbow, ShouldAlmostEqual, 180, epsilon)
		})
	})
}

func TestBackStraightness(t *testing.T) {
	Convey("Given a perfectly vertical torso", t, func() {
		f := frame()
		f[pose.LeftShoulder] = at(0.4, 0.2, 0)
		f[pose.RightShoulder] = at(0.6, 0.2, 0)
		f[pose.LeftHip] = at(0.4, 0.6, 0)
		f[pose.RightHip] = at(0.6, 0.6, 0)

		ratio, ok := pose.BackStraightness(f)

		Convey("Then the ratio is 1", func() {
			So(ok, ShouldBeTrue)
			So(ratio, ShouldAlmostEqual, 1, epsilon)
		})
	})

	Convey("Given a leaning torso", t, func() {
		f := frame()
		f[pose.LeftShoulder] = at(0.2, 0.3, 0)
		f[pose.RightShoulder] = at(0.4, 0.3, 0)
		f[pose.LeftHip] = at(0.4, 0.6, 0)
		f[pose.RightHip] = at(0.6, 0.6, 0)

		ratio, ok := pose.BackStraightness(f)

		Convey("Then the ratio falls below 1", func() {
			So(ok, ShouldBeTrue)
			So(ratio, ShouldBeLessThan, 1)
			So(ratio, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given coincident shoulder and hip midpoints", t, func() {
		f := frame()
		// All four landmarks at the same point: distance is zero and
		// the ratio is undefined.
		ratio, ok := pose.BackStraightness(f)

		Convey("Then the reading is flagged as unreliable", func() {
			So(ok, ShouldBeFalse)
			So(ratio, ShouldEqual, 0)
		})
	})

	Convey("Given a short frame", t, func() {
		_, ok := pose.BackStraightness(make([]pose.Landmark, 5))

		Convey("Then the reading is flagged as unreliable", func() {
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFormatAngle(t *testing.T) {
	Convey("Given angles to display", t, func() {
		So(pose.FormatAngle(89.6), ShouldEqual, "90°")
		So(pose.FormatAngle(0), ShouldEqual, "0°")
		So(pose.FormatAngle(112.4), ShouldEqual, "112°")
	})
}

func TestVisibility(t *testing.T) {
	Convey("Given landmarks around the display threshold", t, func() {
		So(pose.Landmark{Visibility: 0.5}.Visible(), ShouldBeTrue)
		So(pose.Landmark{Visibility: 0.49}.Visible(), ShouldBeFalse)
		So(pose.Landmark{Visibility: 1}.Visible(), ShouldBeTrue)
	})
}
