package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/physio/internal/domain/report"
	"github.com/okian/physio/internal/session"
	"github.com/okian/physio/pkg/logger"
	"github.com/okian/physio/pkg/metrics"
)

// Hub routes envelopes between the members of each session. It is
// reactive: state changes only in response to an inbound event, and no
// send ever blocks on a slow peer. Messages from a single connection
// are dispatched in arrival order; no ordering holds across
// connections.
type Hub struct {
	registry *session.Registry
	conns    *connTable
	now      func() time.Time
	logger   logger.Logger
}

// HubOption applies a configuration option to the Hub.
type HubOption func(*Hub)

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) HubOption {
	return func(h *Hub) {
		if clock != nil {
			h.now = clock
		}
	}
}

// NewHub creates a hub over the given session registry.
func NewHub(registry *session.Registry, opts ...HubOption) *Hub {
	h := &Hub{
		registry: registry,
		conns:    newConnTable(),
		now:      time.Now,
		logger:   nil, // resolved lazily via log()
	}

	// Apply all options
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Hub) log() logger.Logger {
	if h.logger == nil {
		h.logger = logger.Get().Named("hub")
	}
	return h.logger
}

// Attach registers a member's connection and announces the presence to
// everyone else in the session.
func (h *Hub) Attach(ctx context.Context, code, userID string, conn Conn) error {
	sess, ok := h.registry.Get(code)
	if !ok {
		return session.ErrNotFound
	}
	if !sess.IsMember(userID) {
		return ErrNotMember
	}

	h.conns.put(sess.Code(), userID, conn)
	sess.SetConnected(userID, true)
	metrics.UpdateConnections(h.conns.total())

	h.log().Info(ctx, "connection attached",
		logger.String("session", sess.Code()),
		logger.String("user", userID),
	)

	h.broadcast(ctx, sess.Code(), Envelope{
		Type:        TypeUserJoined,
		UserID:      userID,
		SessionCode: sess.Code(),
	}, userID)
	return nil
}

// Detach drops a member's connection and marks them disconnected.
// Membership survives the drop, so the same ID can re-attach after a
// transient network failure; leaving the session for good is the
// registry's explicit Leave operation. Remaining members observe a
// presence-departure event either way.
func (h *Hub) Detach(ctx context.Context, code, userID string) {
	sess, ok := h.registry.Get(code)
	if ok {
		sess.SetConnected(userID, false)
		code = sess.Code()
	}

	if removed := h.conns.remove(code, userID); !removed {
		return
	}
	metrics.UpdateConnections(h.conns.total())

	h.log().Info(ctx, "connection detached",
		logger.String("session", code),
		logger.String("user", userID),
	)

	h.broadcast(ctx, code, Envelope{Type: TypeUserLeft, UserID: userID}, userID)
}

// Route dispatches one inbound envelope from senderID. Unroutable
// messages are dropped with a log line, never surfaced as fatal: a bad
// message must not take the connection down.
func (h *Hub) Route(ctx context.Context, code, senderID string, env Envelope) error {
	sess, ok := h.registry.Get(code)
	if !ok {
		return session.ErrNotFound
	}

	therapistID := sess.Therapist().ID
	fromTherapist := senderID == therapistID

	switch env.Type {
	case TypeFeedback:
		// Therapist -> exactly one patient.
		if !fromTherapist {
			return ErrNotAuthorized
		}
		if env.TargetPatient == "" {
			return fmt.Errorf("%w: feedback without target_patient", ErrNoRecipient)
		}
		out := Envelope{
			Type:      TypeFeedback,
			ID:        uuid.NewString(),
			Message:   env.Message,
			From:      senderID,
			Timestamp: h.now().UnixMilli(),
		}
		metrics.RecordMessageRouted(string(env.Type))
		return h.sendTo(ctx, sess, env.TargetPatient, out)

	case TypePoseUpdate:
		// Patient -> therapist only.
		if fromTherapist {
			return ErrNotAuthorized
		}
		metrics.RecordMessageRouted(string(env.Type))
		return h.sendTo(ctx, sess, therapistID, Envelope{
			Type:     TypePoseUpdate,
			UserID:   senderID,
			PoseData: env.PoseData,
		})

	case TypeAccuracyUpdate:
		if fromTherapist {
			return ErrNotAuthorized
		}
		if env.Accuracy == nil {
			return fmt.Errorf("%w: accuracy_update without accuracy", ErrUnknownType)
		}
		// The coordinator owns the stats entry for the sender.
		if err := sess.RecordAccuracy(senderID, *env.Accuracy, h.now()); err != nil {
			return err
		}
		metrics.RecordMessageRouted(string(env.Type))
		return h.sendTo(ctx, sess, therapistID, Envelope{
			Type:     TypeAccuracyUpdate,
			UserID:   senderID,
			Accuracy: env.Accuracy,
		})

	case TypeWebRTCSignal:
		// Opaque relay for direct media channel setup.
		if env.TargetUser == "" {
			return fmt.Errorf("%w: webrtc_signal without target_user", ErrNoRecipient)
		}
		metrics.RecordMessageRouted(string(env.Type))
		return h.sendTo(ctx, sess, env.TargetUser, Envelope{
			Type:     TypeWebRTCSignal,
			FromUser: senderID,
			Signal:   env.Signal,
		})

	default:
		metrics.RecordRouteError()
		if env.Type.Valid() {
			// user_joined, user_left and session_ended only ever
			// originate from the hub itself.
			h.log().Warn(ctx, "dropping server-originated type from client",
				logger.String("type", string(env.Type)),
				logger.String("sender", senderID),
			)
			return ErrNotAuthorized
		}
		h.log().Warn(ctx, "dropping message of unknown type",
			logger.String("type", string(env.Type)),
			logger.String("sender", senderID),
		)
		return ErrUnknownType
	}
}

// EndSession announces the final report to every member, then closes
// and forgets all connections. Further sends for the code fail.
func (h *Hub) EndSession(ctx context.Context, code string, rep report.Report) {
	h.broadcast(ctx, code, Envelope{Type: TypeSessionEnded, Report: &rep}, "")

	for userID, conn := range h.conns.drop(code) {
		if err := conn.Close(); err != nil {
			h.log().Debug(ctx, "closing connection failed",
				logger.String("user", userID), logger.Error(err))
		}
	}
	metrics.UpdateConnections(h.conns.total())
	metrics.RecordMessageRouted(string(TypeSessionEnded))
}

// Connected reports whether a member currently has a live connection.
func (h *Hub) Connected(code, userID string) bool {
	_, ok := h.conns.get(code, userID)
	return ok
}

// sendTo delivers to one member. A failed send marks the recipient
// disconnected and drops the connection; there is no retry.
func (h *Hub) sendTo(ctx context.Context, sess *session.Session, userID string, env Envelope) error {
	conn, ok := h.conns.get(sess.Code(), userID)
	if !ok {
		metrics.RecordRouteError()
		return fmt.Errorf("%w: %s", ErrNoRecipient, userID)
	}

	if err := conn.Send(ctx, env); err != nil {
		metrics.RecordRouteError()
		sess.SetConnected(userID, false)
		h.conns.remove(sess.Code(), userID)
		h.log().Warn(ctx, "send failed, dropping connection",
			logger.String("session", sess.Code()),
			logger.String("user", userID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// broadcast delivers to every member of the session except exclude.
// Failures are logged per recipient and do not stop the fan-out.
func (h *Hub) broadcast(ctx context.Context, code string, env Envelope, exclude string) {
	for userID, conn := range h.conns.snapshot(code) {
		if userID == exclude {
			continue
		}
		if err := conn.Send(ctx, env); err != nil {
			metrics.RecordRouteError()
			h.log().Debug(ctx, "broadcast delivery failed",
				logger.String("user", userID), logger.Error(err))
		}
	}
	if env.Type == TypeUserJoined || env.Type == TypeUserLeft {
		metrics.RecordMessageRouted(string(env.Type))
	}
}
