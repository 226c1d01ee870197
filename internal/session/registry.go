package session

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/physio/pkg/metrics"
)

// Default registry configuration constants.
const (
	defaultMaxPatients = 3
	defaultCodeLength  = 6
	defaultHistorySize = 1024
	defaultSampleLimit = 1000

	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxPatients caps concurrently joined patients per session.
func WithMaxPatients(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxPatients = n
		}
	}
}

// WithCodeLength sets the length of generated session codes.
func WithCodeLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.codeLength = n
		}
	}
}

// WithHistorySize bounds each patient's accuracy history ring.
func WithHistorySize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.historySize = n
		}
	}
}

// WithSampleLimit bounds the per-patient pose sample log.
func WithSampleLimit(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.sampleLimit = n
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Registry indexes active sessions by code. A code maps to at most one
// active session; ended sessions leave the index immediately.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxPatients int
	codeLength  int
	historySize int
	sampleLimit int
	now         func() time.Time
	rng         *rand.Rand
}

// NewRegistry creates a session registry with configuration options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:    make(map[string]*Session),
		maxPatients: defaultMaxPatients,
		codeLength:  defaultCodeLength,
		historySize: defaultHistorySize,
		sampleLimit: defaultSampleLimit,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // codes are shareable identifiers, not secrets
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create starts a new session for a therapist and returns it. The
// generated code is unique among active sessions.
func (r *Registry) Create(therapistName, exerciseKey string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCodeLocked()
	s := newSession(code, therapistName, exerciseKey, r.maxPatients, r.historySize, r.sampleLimit, r.now())
	r.sessions[code] = s

	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(r.sessions))
	return s
}

// Get looks a session up by code, case-insensitively.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[normalizeCode(code)]
	return s, ok
}

// Join adds a patient to the session identified by code. It returns
// ErrNotFound for unknown codes and ErrSessionFull at capacity.
func (r *Registry) Join(code, patientName string) (*Session, Participant, error) {
	s, ok := r.Get(code)
	if !ok {
		metrics.RecordJoinRejected("not_found")
		return nil, Participant{}, ErrNotFound
	}

	p, err := s.Join(patientName, r.now())
	if err != nil {
		if errors.Is(err, ErrSessionFull) {
			metrics.RecordJoinRejected("capacity")
		} else {
			metrics.RecordJoinRejected("ended")
		}
		return nil, Participant{}, err
	}

	metrics.UpdateParticipants(r.ParticipantCount())
	return s, p, nil
}

// Leave removes a patient from the session identified by code.
func (r *Registry) Leave(code, patientID string) error {
	s, ok := r.Get(code)
	if !ok {
		return ErrNotFound
	}
	if err := s.Leave(patientID); err != nil {
		return err
	}
	metrics.UpdateParticipants(r.ParticipantCount())
	return nil
}

// End terminates the session, removes it from the index and returns
// the generated report.
func (r *Registry) End(code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeCode(code)
	s, ok := r.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.sessions, key)

	metrics.RecordSessionEnded()
	metrics.UpdateActiveSessions(len(r.sessions))
	return s, nil
}

// Codes returns the codes of all active sessions.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.sessions))
	for code := range r.sessions {
		codes = append(codes, code)
	}
	return codes
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ParticipantCount returns participants across all active sessions,
// therapists included.
func (r *Registry) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, s := range r.sessions {
		total += 1 + s.PatientCount()
	}
	return total
}

// generateCodeLocked regenerates on collision; uniqueness among active
// sessions is a created-time invariant.
func (r *Registry) generateCodeLocked() string {
	for {
		b := make([]byte, r.codeLength)
		for i := range b {
			b[i] = codeCharset[r.rng.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, exists := r.sessions[code]; !exists {
			return code
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
