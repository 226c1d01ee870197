// Package realtime multiplexes role-based messages between one
// therapist and several patients over persistent, message-oriented
// connections. The hub dispatches on a closed set of envelope types;
// payloads it does not understand are dropped, payloads it relays for
// media signaling are passed through unmodified.
package realtime

import (
	"encoding/json"

	"github.com/okian/physio/internal/domain/report"
)

// MessageType enumerates the wire envelope types.
type MessageType string

const (
	TypeUserJoined     MessageType = "user_joined"
	TypeUserLeft       MessageType = "user_left"
	TypeFeedback       MessageType = "feedback"
	TypePoseUpdate     MessageType = "pose_update"
	TypeAccuracyUpdate MessageType = "accuracy_update"
	TypeSessionEnded   MessageType = "session_ended"
	TypeWebRTCSignal   MessageType = "webrtc_signal"
)

// Valid reports whether t is a known envelope type.
func (t MessageType) Valid() bool {
	switch t {
	case TypeUserJoined, TypeUserLeft, TypeFeedback, TypePoseUpdate,
		TypeAccuracyUpdate, TypeSessionEnded, TypeWebRTCSignal:
		return true
	default:
		return false
	}
}

// Envelope is the JSON wire message, `{type, ...fields}`. Which fields
// are set depends on Type; unused fields are omitted on the wire.
type Envelope struct {
	Type MessageType `json:"type"`

	// Presence and routing identities.
	UserID      string `json:"user_id,omitempty"`
	SessionCode string `json:"session_code,omitempty"`

	// Feedback fields. TargetPatient names the sole recipient on the
	// way in; From, ID and Timestamp are stamped on the way out.
	TargetPatient string `json:"target_patient,omitempty"`
	Message       string `json:"message,omitempty"`
	From          string `json:"from,omitempty"`
	ID            string `json:"id,omitempty"`
	Timestamp     int64  `json:"ts,omitempty"`

	// Accuracy update. Pointer so a genuine 0 survives omitempty.
	Accuracy *int `json:"accuracy,omitempty"`

	// Opaque payloads: the hub never interprets these.
	PoseData json.RawMessage `json:"pose_data,omitempty"`
	Signal   json.RawMessage `json:"signal,omitempty"`

	// WebRTC signaling addressing.
	TargetUser string `json:"target_user,omitempty"`
	FromUser   string `json:"from_user,omitempty"`

	// Final report, on session_ended.
	Report *report.Report `json:"report,omitempty"`
}

// IntPtr is a small helper for building accuracy envelopes.
func IntPtr(v int) *int { return &v }
