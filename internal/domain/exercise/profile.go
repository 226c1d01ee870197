// Package exercise scores joint angles against exercise-specific target
// profiles. Profiles are data, not code: new exercises are added by
// registering profiles, never by branching logic.
package exercise

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// BackStraightnessMetric is the derived (non-joint) metric key. Its
// profile bounds are expressed on the [0,1] ratio scale and compared on
// a x100 scale during validation.
const BackStraightnessMetric = "backStraightness"

// Target is an acceptable range for one metric, with a relative weight
// in the aggregate score.
type Target struct {
	Min    float64 `json:"min" koanf:"min"`
	Max    float64 `json:"max" koanf:"max"`
	Weight float64 `json:"weight" koanf:"weight"`
}

// Profile describes correct form for one exercise.
type Profile struct {
	Name        string            `json:"name" koanf:"name"`
	Description string            `json:"description" koanf:"description"`
	Targets     map[string]Target `json:"targets" koanf:"targets"`
}

// Registry maps profile keys to profiles. Lookup is case-insensitive.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry creates a registry preloaded with the built-in exercises.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	r.Register("squat", Profile{
		Name:        "Squat",
		Description: "Proper squat form with knees at 80-110 degrees",
		Targets: map[string]Target{
			"leftKnee":             {Min: 80, Max: 110, Weight: 1.0},
			"rightKnee":            {Min: 80, Max: 110, Weight: 1.0},
			BackStraightnessMetric: {Min: 0.85, Max: 1.0, Weight: 0.8},
		},
	})
	r.Register("lateral_raise", Profile{
		Name:        "Lateral Shoulder Raise",
		Description: "Arms raised to shoulder level (160-180 degrees)",
		Targets: map[string]Target{
			"leftShoulder":  {Min: 160, Max: 180, Weight: 1.0},
			"rightShoulder": {Min: 160, Max: 180, Weight: 1.0},
		},
	})
	return r
}

// Register adds or replaces a profile under key.
func (r *Registry) Register(key string, p Profile) {
	r.profiles[normalize(key)] = p
}

// Get returns the profile for key.
func (r *Registry) Get(key string) (Profile, bool) {
	p, ok := r.profiles[normalize(key)]
	return p, ok
}

// Keys returns the registered profile keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	return keys
}

// Instructions returns the human-readable description for key, or an
// empty string for unknown profiles.
func (r *Registry) Instructions(key string) string {
	p, ok := r.Get(key)
	if !ok {
		return ""
	}
	return p.Description
}

// LoadFile merges profiles from a YAML file into the registry. The file
// maps profile keys to profile definitions.
func (r *Registry) LoadFile(path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadProfiles, err)
	}

	loaded := make(map[string]Profile)
	if err := k.UnmarshalWithConf("", &loaded, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadProfiles, err)
	}

	for key, p := range loaded {
		if len(p.Targets) == 0 {
			return fmt.Errorf("%w: profile %q has no targets", ErrLoadProfiles, key)
		}
		r.Register(key, p)
	}
	return nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
