// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/physio/internal/domain/report"
	"github.com/okian/physio/internal/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionService
	PoseRecorder
	StatsProvider
}

// SessionService covers the session lifecycle operations.
type SessionService interface {
	CreateSession(ctx context.Context, therapistName, exercise string) (SessionView, error)
	JoinSession(ctx context.Context, code, patientName string) (JoinView, error)
	DescribeSession(ctx context.Context, code string) (SessionView, error)
	EndSession(ctx context.Context, code string) (report.Report, error)
	SessionReport(ctx context.Context, code string) (report.Report, error)
}

// SessionView is the read shape returned for a session.
type SessionView struct {
	SessionCode  string   `json:"session_code"`
	TherapistID  string   `json:"therapist_id"`
	Therapist    string   `json:"therapist_name"`
	Exercise     string   `json:"exercise"`
	State        string   `json:"state"`
	PatientCount int      `json:"patient_count"`
	Patients     []string `json:"patients"`
}

// JoinView is returned to a patient that joined a session. The pacing
// fields tell the client how often to publish accuracy and how long to
// keep feedback on screen.
type JoinView struct {
	SessionCode        string `json:"session_code"`
	PatientID          string `json:"patient_id"`
	Exercise           string `json:"exercise"`
	Instructions       string `json:"instructions,omitempty"`
	AccuracyIntervalMS int    `json:"accuracy_interval_ms"`
	FeedbackTTLMS      int    `json:"feedback_ttl_ms"`
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	poseHandler    *PoseHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		poseHandler:    NewPoseHandler(deps),
	}
}

// Register attaches all HTTP routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions_create"))
		r.Post("/sessions/join", MetricsMiddleware(s.sessionHandler.HandleJoin, "sessions_join"))
		r.Get("/sessions/{code}", MetricsMiddleware(s.sessionHandler.HandleGet, "sessions_get"))
		r.Post("/sessions/{code}/end", MetricsMiddleware(s.sessionHandler.HandleEnd, "sessions_end"))
		r.Get("/sessions/{code}/report", MetricsMiddleware(s.sessionHandler.HandleReport, "sessions_report"))
		r.Post("/pose-data", MetricsMiddleware(s.poseHandler.HandlePostPose, "pose_data"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeSessionError maps session-layer sentinels onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, session.ErrSessionFull):
		writeError(w, http.StatusConflict, "session_full", err)
	case errors.Is(err, session.ErrSessionEnded):
		writeError(w, http.StatusNotFound, "not_found", session.ErrNotFound)
	case errors.Is(err, session.ErrUnknownPatient):
		writeError(w, http.StatusNotFound, "unknown_patient", err)
	case errors.Is(err, ErrUnknownExercise):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
