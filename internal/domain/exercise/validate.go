package exercise

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/physio/internal/domain/pose"
	"github.com/okian/physio/pkg/metrics"
)

// Validation thresholds.
const (
	// toleranceFraction is the share of a target's span allowed as a
	// "slight" deviation band on either side of [min,max].
	toleranceFraction = 0.15

	// validThreshold is the accuracy at which a rep counts as valid.
	validThreshold = 70

	// excellentThreshold selects the top feedback tier.
	excellentThreshold = 90

	scoreCorrect = 1.0
	scoreSlight  = 0.5

	// ratioScale maps the [0,1] back-straightness ratio onto the same
	// numeric space as angle targets.
	ratioScale = 100
)

// Status classifies one metric reading against its target.
type Status int

const (
	Incorrect Status = iota
	Slight
	Correct
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Correct:
		return "correct"
	case Slight:
		return "slight"
	default:
		return "incorrect"
	}
}

// Color returns the display color associated with the status.
func (s Status) Color() string {
	switch s {
	case Correct:
		return "#22C55E"
	case Slight:
		return "#EAB308"
	default:
		return "#EF4444"
	}
}

// MarshalJSON renders the status as its lowercase name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// JointStatus is the per-metric detail of a validation result.
type JointStatus struct {
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
	Target Target  `json:"target"`
	Color  string  `json:"color"`
}

// Result is the outcome of validating one pose frame.
type Result struct {
	IsValid     bool                   `json:"is_valid"`
	Accuracy    int                    `json:"accuracy"`
	JointStatus map[string]JointStatus `json:"joint_status"`
	Errors      []string               `json:"errors"`
}

// Classify grades a metric reading against its target. ok is false when
// the reading is absent or unreliable, which always classifies as
// incorrect.
func Classify(value float64, ok bool, target Target) Status {
	if !ok {
		return Incorrect
	}

	tolerance := (target.Max - target.Min) * toleranceFraction

	switch {
	case value >= target.Min && value <= target.Max:
		return Correct
	case value >= target.Min-tolerance && value < target.Min:
		return Slight
	case value > target.Max && value <= target.Max+tolerance:
		return Slight
	default:
		return Incorrect
	}
}

// Engine validates pose frames against the profiles in its registry.
type Engine struct {
	registry *Registry
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRegistry replaces the default profile registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// NewEngine creates a validation engine with the built-in profiles.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: NewRegistry(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry exposes the engine's profile registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Validate scores one frame against the named profile. An unknown
// profile key or missing angle set yields a zero, invalid result with
// empty statuses: "no confident reading" is a valid low-score outcome,
// never an error.
func (e *Engine) Validate(angles pose.Angles, anglesOK bool, landmarks []pose.Landmark, profileKey string) Result {
	start := time.Now()
	defer func() {
		metrics.RecordValidationLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	zero := Result{JointStatus: map[string]JointStatus{}, Errors: []string{}}

	profile, found := e.registry.Get(profileKey)
	if !anglesOK || !found {
		return zero
	}

	jointStatus := make(map[string]JointStatus, len(profile.Targets))
	errs := make([]string, 0)
	var totalScore, totalWeight float64

	for _, metric := range sortedMetrics(profile.Targets) {
		target := profile.Targets[metric]

		var value float64
		var ok bool
		var status Status

		if metric == BackStraightnessMetric {
			value, ok = pose.BackStraightness(landmarks)
			scaled := Target{Min: target.Min * ratioScale, Max: target.Max * ratioScale}
			status = Classify(value*ratioScale, ok, scaled)
		} else {
			value, ok = angles.Lookup(metric)
			status = Classify(value, ok, target)
		}

		jointStatus[metric] = JointStatus{
			Value:  value,
			Status: status,
			Target: target,
			Color:  status.Color(),
		}

		switch status {
		case Correct:
			totalScore += scoreCorrect * target.Weight
		case Slight:
			totalScore += scoreSlight * target.Weight
		case Incorrect:
			errs = append(errs, fmt.Sprintf("%s: %s (target: %g-%g°)",
				metric, pose.FormatAngle(value), target.Min, target.Max))
		}
		totalWeight += target.Weight
	}

	accuracy := 0
	if totalWeight > 0 {
		accuracy = int(math.Round(totalScore / totalWeight * 100))
	}

	metrics.RecordFrameValidated()
	metrics.RecordAccuracyScore(accuracy)

	return Result{
		IsValid:     accuracy >= validThreshold,
		Accuracy:    accuracy,
		JointStatus: jointStatus,
		Errors:      errs,
	}
}

// FeedbackText returns the tiered canned message for a result.
func (e *Engine) FeedbackText(result Result, profileKey string) string {
	profile, found := e.registry.Get(profileKey)
	if !found {
		return ""
	}

	switch {
	case result.Accuracy >= excellentThreshold:
		return fmt.Sprintf("Excellent form! %s performed correctly.", profile.Name)
	case result.Accuracy >= validThreshold:
		return fmt.Sprintf("Good effort! Minor adjustments needed: %s", strings.Join(result.Errors, ", "))
	default:
		return fmt.Sprintf("Form needs correction: %s", strings.Join(result.Errors, ", "))
	}
}

// sortedMetrics keeps error ordering deterministic across runs.
func sortedMetrics(targets map[string]Target) []string {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
