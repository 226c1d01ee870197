// Package pose converts raw 3D body landmarks into joint angles and
// alignment ratios. All functions are pure; bad frames degrade to
// sentinel values rather than errors so a single frame never interrupts
// the stream.
package pose

// FrameSize is the fixed number of landmarks in a full pose.
const FrameSize = 33

// VisibilityThreshold is the confidence below which a landmark is
// treated as absent for display purposes. Angle math still uses the
// raw coordinates.
const VisibilityThreshold = 0.5

// Landmark indices within a frame. The ordering is fixed by the
// upstream pose estimator.
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
)

// Landmark is a single tracked body point. X, Y and Z are normalized
// image-relative coordinates in [0,1]; Visibility is the estimator's
// confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Visible reports whether the landmark clears the display confidence
// threshold.
func (l Landmark) Visible() bool {
	return l.Visibility >= VisibilityThreshold
}

// Angles holds the eight named joint angles, in degrees.
type Angles struct {
	LeftElbow     float64 `json:"leftElbow"`
	LeftShoulder  float64 `json:"leftShoulder"`
	LeftHip       float64 `json:"leftHip"`
	LeftKnee      float64 `json:"leftKnee"`
	RightElbow    float64 `json:"rightElbow"`
	RightShoulder float64 `json:"rightShoulder"`
	RightHip      float64 `json:"rightHip"`
	RightKnee     float64 `json:"rightKnee"`
}

// Lookup returns the angle for a named joint. The second return is
// false for unknown joint names.
func (a Angles) Lookup(joint string) (float64, bool) {
	switch joint {
	case "leftElbow":
		return a.LeftElbow, true
	case "leftShoulder":
		return a.LeftShoulder, true
	case "leftHip":
		return a.LeftHip, true
	case "leftKnee":
		return a.LeftKnee, true
	case "rightElbow":
		return a.RightElbow, true
	case "rightShoulder":
		return a.RightShoulder, true
	case "rightHip":
		return a.RightHip, true
	case "rightKnee":
		return a.RightKnee, true
	default:
		return 0, false
	}
}
