package realtime

import "errors"

// Sentinel kinds for realtime errors.
var (
	ErrNotMember     = errors.New("user is not a session member")
	ErrConnClosed    = errors.New("connection closed")
	ErrSendBuffer    = errors.New("send buffer full")
	ErrUnknownType   = errors.New("unknown message type")
	ErrNotAuthorized = errors.New("sender role not allowed for message type")
	ErrNoRecipient   = errors.New("no connected recipient")
)
