package session

import "errors"

// Sentinel kinds for session errors. Join failures distinguish capacity
// from not-found so callers can surface an actionable message.
var (
	ErrNotFound       = errors.New("session not found")
	ErrSessionFull    = errors.New("session is full")
	ErrSessionEnded   = errors.New("session has ended")
	ErrUnknownPatient = errors.New("unknown patient")
)
