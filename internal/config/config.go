// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

// Defaults mirror the reference deployment.
const (
	defaultMaxPatients       = 3
	defaultCodeLength        = 6
	defaultAccuracyInterval  = 2000
	defaultFeedbackTTL       = 5000
	defaultHistorySize       = 1024
	defaultPoseSampleLimit   = 1000
	defaultMaxPosePayloadKiB = 256
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ReportDir is the directory session reports are exported to.
	ReportDir string `koanf:"report_dir"`

	// ExercisesFile optionally points to a YAML file with extra
	// exercise profiles, merged over the built-in registry.
	ExercisesFile string `koanf:"exercises_file"`

	// MaxPatients caps concurrently joined patients per session.
	MaxPatients int `koanf:"max_patients"`

	// SessionCodeLength sets the length of generated session codes.
	SessionCodeLength int `koanf:"session_code_length"`

	// AccuracyIntervalMS is the nominal patient accuracy emission period.
	AccuracyIntervalMS int `koanf:"accuracy_interval_ms"`

	// FeedbackTTLMS is how long feedback stays in the visible queue.
	FeedbackTTLMS int `koanf:"feedback_ttl_ms"`

	// AccuracyHistorySize bounds each patient's accuracy ring buffer.
	AccuracyHistorySize int `koanf:"accuracy_history_size"`

	// PoseSampleLimit bounds the per-patient pose sample log.
	PoseSampleLimit int `koanf:"pose_sample_limit"`

	// MaxPosePayloadKiB bounds the accepted pose-data payload size.
	MaxPosePayloadKiB int `koanf:"max_pose_payload_kib"`
}

// New creates a Config with reference defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8000",
		ReportDir:           "reports",
		ExercisesFile:       "",
		MaxPatients:         defaultMaxPatients,
		SessionCodeLength:   defaultCodeLength,
		AccuracyIntervalMS:  defaultAccuracyInterval,
		FeedbackTTLMS:       defaultFeedbackTTL,
		AccuracyHistorySize: defaultHistorySize,
		PoseSampleLimit:     defaultPoseSampleLimit,
		MaxPosePayloadKiB:   defaultMaxPosePayloadKiB,
	}
}
