// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// PoseRecorder stores pose samples against a session member.
type PoseRecorder interface {
	RecordPose(ctx context.Context, code, userID string, ts int64, data map[string]any) error
}

// PoseHandler handles pose sample submissions.
type PoseHandler struct {
	recorder PoseRecorder
}

// NewPoseHandler creates a new pose data handler.
func NewPoseHandler(recorder PoseRecorder) *PoseHandler {
	return &PoseHandler{recorder: recorder}
}

type poseRequest struct {
	SessionCode string         `json:"session_code"`
	UserID      string         `json:"user_id"`
	Timestamp   int64          `json:"timestamp"`
	PoseData    map[string]any `json:"pose_data"`
}

func (p poseRequest) validate() error {
	switch {
	case strings.TrimSpace(p.SessionCode) == "":
		return fmt.Errorf("%w: missing session_code", ErrBadRequest)
	case strings.TrimSpace(p.UserID) == "":
		return fmt.Errorf("%w: missing user_id", ErrBadRequest)
	case len(p.PoseData) == 0:
		return fmt.Errorf("%w: missing pose_data", ErrBadRequest)
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostPose handles POST /api/pose-data requests.
func (h *PoseHandler) HandlePostPose(w http.ResponseWriter, r *http.Request) {
	var req poseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.recorder.RecordPose(r.Context(), req.SessionCode, req.UserID, req.Timestamp, req.PoseData); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "recorded"})
}
