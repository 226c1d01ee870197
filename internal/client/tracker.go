package client

import (
	"context"
	"sync"
	"time"

	"github.com/okian/physio/internal/adapters/realtime"
	"github.com/okian/physio/internal/domain/exercise"
	"github.com/okian/physio/internal/domain/pose"
	"github.com/okian/physio/pkg/logger"
)

// Tracker validates landmark frames locally and publishes the latest
// accuracy over the session connection at a fixed cadence. Frames
// arrive at camera rate; only the most recent result is ever sent.
type Tracker struct {
	engine   *exercise.Engine
	exercise string
	conn     realtime.Conn
	cadence  *Cadence
	logger   logger.Logger

	mu     sync.RWMutex
	latest exercise.Result
	seen   bool
}

// TrackerOption applies a configuration option to the Tracker.
type TrackerOption func(*Tracker)

// WithCadence replaces the default two-second publish cadence.
func WithCadence(c *Cadence) TrackerOption {
	return func(t *Tracker) {
		if c != nil {
			t.cadence = c
		}
	}
}

// WithTrackerLogger sets a custom logger for the tracker.
func WithTrackerLogger(l logger.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a tracker for one patient performing the named
// exercise over conn.
func NewTracker(engine *exercise.Engine, exerciseKey string, conn realtime.Conn, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		engine:   engine,
		exercise: exerciseKey,
		conn:     conn,
		cadence:  NewCadence(defaultInterval),
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *Tracker) log() logger.Logger {
	if t.logger == nil {
		t.logger = logger.Get().Named("tracker")
	}
	return t.logger
}

// Observe validates one landmark frame and retains the result.
func (t *Tracker) Observe(frame []pose.Landmark) exercise.Result {
	angles, ok := pose.JointAngles(frame)
	result := t.engine.Validate(angles, ok, frame, t.exercise)

	t.mu.Lock()
	t.latest = result
	t.seen = true
	t.mu.Unlock()
	return result
}

// Latest returns the most recent validation result, if any frame has
// been observed yet.
func (t *Tracker) Latest() (exercise.Result, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.seen
}

// Feedback renders guidance text for the most recent result.
func (t *Tracker) Feedback() string {
	result, ok := t.Latest()
	if !ok {
		return ""
	}
	return t.engine.FeedbackText(result, t.exercise)
}

// Run publishes accuracy updates until ctx is done. Ticks before the
// first observed frame are skipped; failed sends are logged and the
// next tick tries again.
func (t *Tracker) Run(ctx context.Context) {
	t.cadence.Run(ctx, func(time.Time) {
		result, ok := t.Latest()
		if !ok {
			return
		}

		err := t.conn.Send(ctx, realtime.Envelope{
			Type:     realtime.TypeAccuracyUpdate,
			Accuracy: realtime.IntPtr(result.Accuracy),
		})
		if err != nil {
			t.log().Debug(ctx, "accuracy publish failed", logger.Error(err))
		}
	})
}
