package exercise

import "errors"

// Sentinel kinds for profile errors.
var (
	ErrLoadProfiles = errors.New("load exercise profiles failed")
)
