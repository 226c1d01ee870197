// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/physio/internal/adapters/export"
	"github.com/okian/physio/internal/adapters/http/api"
	"github.com/okian/physio/internal/adapters/realtime"
	"github.com/okian/physio/internal/domain/exercise"
	"github.com/okian/physio/internal/domain/report"
	"github.com/okian/physio/internal/session"
	"github.com/okian/physio/pkg/logger"
	"github.com/okian/physio/pkg/metrics"
)

const defaultExercise = "squat"

// Service implements the API dependencies for the session platform.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *session.Registry
	hub      *realtime.Hub
	engine   *exercise.Engine
	exporter *export.Exporter

	// Configuration
	maxPatients        int
	codeLength         int
	historySize        int
	sampleLimit        int
	reportDir          string
	exercisesFile      string
	accuracyIntervalMS int
	feedbackTTLMS      int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMaxPatients sets the per-session patient capacity.
func WithMaxPatients(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPatients = n
		}
	}
}

// WithCodeLength sets the generated session code length.
func WithCodeLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithHistorySize sets the per-patient accuracy history capacity.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithSampleLimit caps stored pose samples per patient.
func WithSampleLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleLimit = n
		}
	}
}

// WithReportDir sets the directory session reports are exported to.
func WithReportDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.reportDir = dir
		}
	}
}

// WithExercisesFile points at a YAML file of extra exercise profiles
// loaded on top of the built-ins.
func WithExercisesFile(path string) Option {
	return func(s *Service) {
		s.exercisesFile = path
	}
}

// WithAccuracyInterval sets the accuracy publish period handed to
// joining patients, in milliseconds.
func WithAccuracyInterval(ms int) Option {
	return func(s *Service) {
		if ms > 0 {
			s.accuracyIntervalMS = ms
		}
	}
}

// WithFeedbackTTL sets the feedback display window handed to joining
// patients, in milliseconds.
func WithFeedbackTTL(ms int) Option {
	return func(s *Service) {
		if ms > 0 {
			s.feedbackTTLMS = ms
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxPatients:        3,
		codeLength:         6,
		historySize:        1024,
		sampleLimit:        1000,
		reportDir:          "reports",
		accuracyIntervalMS: 2000,
		feedbackTTLMS:      5000,
		logger:             nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting session service...")

	// Initialize components
	s.engine = exercise.NewEngine()
	if s.exercisesFile != "" {
		if err := s.engine.Registry().LoadFile(s.exercisesFile); err != nil {
			return fmt.Errorf("load exercise profiles: %w", err)
		}
		s.logger.Info(ctx, "loaded exercise profiles",
			logger.String("file", s.exercisesFile))
	}

	s.registry = session.NewRegistry(
		session.WithMaxPatients(s.maxPatients),
		session.WithCodeLength(s.codeLength),
		session.WithHistorySize(s.historySize),
		session.WithSampleLimit(s.sampleLimit),
	)
	s.hub = realtime.NewHub(s.registry)
	s.exporter = export.New(s.reportDir)

	s.started = true
	s.logger.Info(ctx, "session service started",
		logger.Int("maxPatients", s.maxPatients),
		logger.Int("codeLength", s.codeLength),
		logger.String("reportDir", s.reportDir),
		logger.Any("exercises", s.engine.Registry().Keys()),
	)

	return nil
}

// Stop gracefully shuts down the service. Sessions still running are
// ended so their reports are not lost.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping session service...")

	for _, code := range s.registry.Codes() {
		if _, err := s.endSession(ctx, code); err != nil {
			s.logger.Warn(ctx, "ending session on shutdown failed",
				logger.String("session", code), logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "session service stopped")
}

// Hub exposes the realtime hub for the websocket endpoint.
func (s *Service) Hub() *realtime.Hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub
}

// Registry exposes the session registry for the websocket endpoint.
func (s *Service) Registry() *session.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Engine exposes the validation engine.
func (s *Service) Engine() *exercise.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// CreateSession opens a session for a therapist and returns its view.
// An empty exercise selects the default profile.
func (s *Service) CreateSession(ctx context.Context, therapistName, exerciseKey string) (api.SessionView, error) {
	if exerciseKey == "" {
		exerciseKey = defaultExercise
	}
	if _, ok := s.engine.Registry().Get(exerciseKey); !ok {
		return api.SessionView{}, fmt.Errorf("%w: %s", api.ErrUnknownExercise, exerciseKey)
	}

	sess := s.registry.Create(therapistName, strings.ToLower(exerciseKey))
	s.logger.Info(ctx, "session created",
		logger.String("session", sess.Code()),
		logger.String("therapist", therapistName),
		logger.String("exercise", sess.Exercise()),
	)
	return s.viewOf(sess), nil
}

// JoinSession adds a patient to a session.
func (s *Service) JoinSession(ctx context.Context, code, patientName string) (api.JoinView, error) {
	sess, patient, err := s.registry.Join(code, patientName)
	if err != nil {
		return api.JoinView{}, err
	}

	s.logger.Info(ctx, "patient joined",
		logger.String("session", sess.Code()),
		logger.String("patient", patient.ID),
	)
	return api.JoinView{
		SessionCode:        sess.Code(),
		PatientID:          patient.ID,
		Exercise:           sess.Exercise(),
		Instructions:       s.engine.Registry().Instructions(sess.Exercise()),
		AccuracyIntervalMS: s.accuracyIntervalMS,
		FeedbackTTLMS:      s.feedbackTTLMS,
	}, nil
}

// DescribeSession returns the current view of a session.
func (s *Service) DescribeSession(ctx context.Context, code string) (api.SessionView, error) {
	sess, ok := s.registry.Get(code)
	if !ok {
		return api.SessionView{}, session.ErrNotFound
	}
	return s.viewOf(sess), nil
}

// EndSession terminates a session: members are notified with the final
// report, connections close, and the report is exported to disk.
func (s *Service) EndSession(ctx context.Context, code string) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endSession(ctx, code)
}

func (s *Service) endSession(ctx context.Context, code string) (report.Report, error) {
	sess, err := s.registry.End(code)
	if err != nil {
		return report.Report{}, err
	}

	rep, err := sess.End(time.Now())
	if err != nil {
		return report.Report{}, err
	}

	s.hub.EndSession(ctx, sess.Code(), rep)

	// Export failure loses the file, not the response.
	path, err := s.exporter.Write(rep)
	if err != nil {
		s.logger.Error(ctx, "report export failed",
			logger.String("session", sess.Code()), logger.Error(err))
	} else {
		s.logger.Info(ctx, "session ended",
			logger.String("session", sess.Code()),
			logger.String("report", path),
		)
	}
	return rep, nil
}

// SessionReport returns a report snapshot without ending the session.
func (s *Service) SessionReport(ctx context.Context, code string) (report.Report, error) {
	sess, ok := s.registry.Get(code)
	if !ok {
		return report.Report{}, session.ErrNotFound
	}
	return sess.Report(time.Now()), nil
}

// RecordPose stores one pose sample against a session member.
func (s *Service) RecordPose(ctx context.Context, code, userID string, ts int64, data map[string]any) error {
	sess, ok := s.registry.Get(code)
	if !ok {
		return session.ErrNotFound
	}

	return sess.AddSample(userID, report.PoseSample{
		UserID:    userID,
		Timestamp: float64(ts),
		Data:      data,
	}, time.Now())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"maxPatients": s.maxPatients,
		"codeLength":  s.codeLength,
	}

	if s.started {
		sessions := s.registry.Count()
		participants := s.registry.ParticipantCount()

		stats["activeSessions"] = sessions
		stats["participants"] = participants
		stats["exercises"] = s.engine.Registry().Keys()

		// Update metrics
		metrics.UpdateActiveSessions(sessions)
		metrics.UpdateParticipants(participants)
	}

	return stats
}

func (s *Service) viewOf(sess *session.Session) api.SessionView {
	patients := sess.Patients()
	names := make([]string, len(patients))
	for i, p := range patients {
		names[i] = p.Name
	}

	return api.SessionView{
		SessionCode:  sess.Code(),
		TherapistID:  sess.Therapist().ID,
		Therapist:    sess.Therapist().Name,
		Exercise:     sess.Exercise(),
		State:        sess.State().String(),
		PatientCount: len(patients),
		Patients:     names,
	}
}
