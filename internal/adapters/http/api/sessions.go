// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SessionHandler handles session lifecycle requests.
type SessionHandler struct {
	svc SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type createRequest struct {
	TherapistName string `json:"therapist_name"`
	Exercise      string `json:"exercise"`
}

func (c createRequest) validate() error {
	if strings.TrimSpace(c.TherapistName) == "" {
		return fmt.Errorf("%w: missing therapist_name", ErrBadRequest)
	}
	return nil
}

type joinRequest struct {
	SessionCode string `json:"session_code"`
	PatientName string `json:"patient_name"`
}

func (j joinRequest) validate() error {
	switch {
	case strings.TrimSpace(j.SessionCode) == "":
		return fmt.Errorf("%w: missing session_code", ErrBadRequest)
	case strings.TrimSpace(j.PatientName) == "":
		return fmt.Errorf("%w: missing patient_name", ErrBadRequest)
	}
	return nil
}

// HandleCreate handles POST /api/sessions requests.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	view, err := h.svc.CreateSession(r.Context(), req.TherapistName, req.Exercise)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleJoin handles POST /api/sessions/join requests.
func (h *SessionHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	view, err := h.svc.JoinSession(r.Context(), req.SessionCode, req.PatientName)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGet handles GET /api/sessions/{code} requests.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.DescribeSession(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleEnd handles POST /api/sessions/{code}/end requests. Ending is
// terminal: members are notified, the report is exported, and the code
// becomes available for reuse.
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.EndSession(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleReport handles GET /api/sessions/{code}/report requests,
// returning a snapshot without ending the session.
func (h *SessionHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.SessionReport(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
