package simsession

import (
	"math"
	"math/rand"

	"github.com/okian/physio/internal/domain/pose"
)

// Frame generation constants.
const (
	framesPerCycle = 20
	jitterAmp      = 0.004
)

// baseFrame returns a neutral standing pose with every landmark
// visible. Only the joints the validators read are positioned with
// care; the rest just need plausible coordinates.
func baseFrame() []pose.Landmark {
	frame := make([]pose.Landmark, pose.FrameSize)
	for i := range frame {
		frame[i] = pose.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}

	frame[pose.LeftShoulder] = pose.Landmark{X: 0.40, Y: 0.20, Visibility: 1}
	frame[pose.RightShoulder] = pose.Landmark{X: 0.60, Y: 0.20, Visibility: 1}
	frame[pose.LeftElbow] = pose.Landmark{X: 0.39, Y: 0.34, Visibility: 1}
	frame[pose.RightElbow] = pose.Landmark{X: 0.61, Y: 0.34, Visibility: 1}
	frame[pose.LeftWrist] = pose.Landmark{X: 0.38, Y: 0.47, Visibility: 1}
	frame[pose.RightWrist] = pose.Landmark{X: 0.62, Y: 0.47, Visibility: 1}
	frame[pose.LeftHip] = pose.Landmark{X: 0.35, Y: 0.50, Visibility: 1}
	frame[pose.RightHip] = pose.Landmark{X: 0.65, Y: 0.50, Visibility: 1}
	frame[pose.LeftKnee] = pose.Landmark{X: 0.35, Y: 0.70, Visibility: 1}
	frame[pose.RightKnee] = pose.Landmark{X: 0.65, Y: 0.70, Visibility: 1}
	frame[pose.LeftAnkle] = pose.Landmark{X: 0.36, Y: 0.90, Visibility: 1}
	frame[pose.RightAnkle] = pose.Landmark{X: 0.64, Y: 0.90, Visibility: 1}
	return frame
}

// squatFrame bends the knees by moving the ankles forward and up under
// the body. depth in [0,1]: 0 is standing, 1 is a full squat with the
// knees near 100 degrees.
func squatFrame(depth float64) []pose.Landmark {
	frame := baseFrame()
	frame[pose.LeftAnkle].X = 0.36 + 0.09*depth
	frame[pose.RightAnkle].X = 0.64 - 0.09*depth
	frame[pose.LeftAnkle].Y = 0.90 - 0.18*depth
	frame[pose.RightAnkle].Y = 0.90 - 0.18*depth
	return frame
}

// raiseFrame lifts the arms sideways and up. lift in [0,1]: 0 hangs the
// arms down, 1 points them overhead, putting the shoulder angle near
// its 160-180 degree target.
func raiseFrame(lift float64) []pose.Landmark {
	frame := baseFrame()
	frame[pose.LeftElbow].X = 0.39 + 0.02*lift
	frame[pose.RightElbow].X = 0.61 - 0.02*lift
	frame[pose.LeftElbow].Y = 0.34 - 0.28*lift
	frame[pose.RightElbow].Y = 0.34 - 0.28*lift
	frame[pose.LeftWrist].X = 0.38 + 0.04*lift
	frame[pose.RightWrist].X = 0.62 - 0.04*lift
	frame[pose.LeftWrist].Y = 0.47 - 0.54*lift
	frame[pose.RightWrist].Y = 0.47 - 0.54*lift
	return frame
}

// generateFrames builds n frames of a patient repeating the exercise,
// sweeping between rest and full range on a triangular cycle with a
// little positional jitter so no two frames are identical.
func generateFrames(exercise string, n int, seed int64) [][]pose.Landmark {
	rng := rand.New(rand.NewSource(seed))

	frames := make([][]pose.Landmark, 0, n)
	for i := 0; i < n; i++ {
		// Triangular wave over the cycle: 0 -> 1 -> 0.
		phase := float64(i%framesPerCycle) / float64(framesPerCycle)
		extent := 1 - math.Abs(2*phase-1)

		var frame []pose.Landmark
		if exercise == "lateral_raise" {
			frame = raiseFrame(extent)
		} else {
			frame = squatFrame(extent)
		}

		for j := range frame {
			frame[j].X += (rng.Float64() - 0.5) * jitterAmp
			frame[j].Y += (rng.Float64() - 0.5) * jitterAmp
		}
		frames = append(frames, frame)
	}
	return frames
}
