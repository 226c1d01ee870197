package pose

import (
	"fmt"
	"math"
)

const degreesPerRadian = 180 / math.Pi

// AngleBetween returns the angle at vertex b formed by points a and c,
// in degrees. Degenerate input (coincident points yielding a
// zero-length vector) returns 0, a "no data" sentinel rather than a
// genuine 0-degree reading.
func AngleBetween(a, b, c Landmark) float64 {
	bax, bay, baz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	bcx, bcy, bcz := c.X-b.X, c.Y-b.Y, c.Z-b.Z

	dot := bax*bcx + bay*bcy + baz*bcz
	magBA := math.Sqrt(bax*bax + bay*bay + baz*baz)
	magBC := math.Sqrt(bcx*bcx + bcy*bcy + bcz*bcz)

	if magBA == 0 || magBC == 0 {
		return 0
	}

	// Floating-point error can push the cosine fractionally outside
	// [-1,1], which would make Acos return NaN.
	cos := dot / (magBA * magBC)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * degreesPerRadian
}

// JointAngles computes the eight named joint angles from a full frame.
// The second return is false when the frame does not hold exactly
// FrameSize landmarks, signaling insufficient pose data upstream.
func JointAngles(landmarks []Landmark) (Angles, bool) {
	if len(landmarks) != FrameSize {
		return Angles{}, false
	}

	return Angles{
		LeftElbow:     AngleBetween(landmarks[LeftShoulder], landmarks[LeftElbow], landmarks[LeftWrist]),
		LeftShoulder:  AngleBetween(landmarks[LeftElbow], landmarks[LeftShoulder], landmarks[LeftHip]),
		LeftHip:       AngleBetween(landmarks[LeftShoulder], landmarks[LeftHip], landmarks[LeftKnee]),
		LeftKnee:      AngleBetween(landmarks[LeftHip], landmarks[LeftKnee], landmarks[LeftAnkle]),
		RightElbow:    AngleBetween(landmarks[RightShoulder], landmarks[RightElbow], landmarks[RightWrist]),
		RightShoulder: AngleBetween(landmarks[RightElbow], landmarks[RightShoulder], landmarks[RightHip]),
		RightHip:      AngleBetween(landmarks[RightShoulder], landmarks[RightHip], landmarks[RightKnee]),
		RightKnee:     AngleBetween(landmarks[RightHip], landmarks[RightKnee], landmarks[RightAnkle]),
	}, true
}

// BackStraightness measures spine alignment as the ratio of vertical
// distance to euclidean distance between the shoulder midpoint and the
// hip midpoint, nominally in [0,1] with 1 meaning perfectly vertical.
// The second return is false when the ratio is undefined: short frames,
// or coincident midpoints (zero distance). Callers must treat a false
// reading as "no confidence", not as a slouched back.
func BackStraightness(landmarks []Landmark) (float64, bool) {
	if len(landmarks) != FrameSize {
		return 0, false
	}

	ls, rs := landmarks[LeftShoulder], landmarks[RightShoulder]
	lh, rh := landmarks[LeftHip], landmarks[RightHip]

	shoulderMidX := (ls.X + rs.X) / 2
	shoulderMidY := (ls.Y + rs.Y) / 2
	shoulderMidZ := (ls.Z + rs.Z) / 2

	hipMidX := (lh.X + rh.X) / 2
	hipMidY := (lh.Y + rh.Y) / 2
	hipMidZ := (lh.Z + rh.Z) / 2

	dx := shoulderMidX - hipMidX
	dy := shoulderMidY - hipMidY
	dz := shoulderMidZ - hipMidZ

	total := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if total == 0 {
		return 0, false
	}

	return math.Abs(dy) / total, true
}

// FormatAngle renders an angle for display, e.g. "93°".
func FormatAngle(angle float64) string {
	return fmt.Sprintf("%d°", int(math.Round(angle)))
}
