// Package session owns per-session coordination state: the state
// machine, participant capacity, patient stats and report generation.
// All structural mutation is serialized by the session's mutex so two
// simultaneous joins can never exceed the patient cap.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/physio/internal/domain/report"
)

// State is the session lifecycle state.
type State int

const (
	// Created: therapist only, no patient has joined yet.
	Created State = iota
	// Active: at least one patient has joined at some point. A session
	// whose last patient leaves stays Active; it never reverts to
	// Created.
	Active
	// Ended is terminal.
	Ended
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	default:
		return "ended"
	}
}

// Role distinguishes the two participant kinds.
type Role int

const (
	Therapist Role = iota
	Patient
)

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == Therapist {
		return "therapist"
	}
	return "patient"
}

// Participant is one member of a session.
type Participant struct {
	ID        string    `json:"id"`
	Role      Role      `json:"-"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Session is a bounded real-time interaction between one therapist and
// up to maxPatients patients, identified by a short shareable code.
type Session struct {
	mu sync.RWMutex

	code      string
	exercise  string
	therapist Participant
	patients  map[string]*Participant
	departed  map[string]Participant
	joinOrder []string
	stats     map[string]*PatientStats
	samples   map[string][]report.PoseSample

	state     State
	createdAt time.Time
	endedAt   time.Time

	maxPatients int
	historySize int
	sampleLimit int
}

func newSession(code, therapistName, exerciseKey string, maxPatients, historySize, sampleLimit int, now time.Time) *Session {
	return &Session{
		code:     code,
		exercise: exerciseKey,
		therapist: Participant{
			ID:       "therapist_" + code,
			Role:     Therapist,
			Name:     therapistName,
			JoinedAt: now,
		},
		patients:    make(map[string]*Participant),
		departed:    make(map[string]Participant),
		stats:       make(map[string]*PatientStats),
		samples:     make(map[string][]report.PoseSample),
		state:       Created,
		createdAt:   now,
		maxPatients: maxPatients,
		historySize: historySize,
		sampleLimit: sampleLimit,
	}
}

// Code returns the session code.
func (s *Session) Code() string { return s.code }

// Exercise returns the active exercise profile key.
func (s *Session) Exercise() string { return s.exercise }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Therapist returns the therapist participant.
func (s *Session) Therapist() Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.therapist
}

// Patients returns a snapshot of joined patients in join order.
func (s *Session) Patients() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Participant, 0, len(s.patients))
	for _, id := range s.joinOrder {
		if p, ok := s.patients[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// PatientCount returns the number of currently joined patients.
func (s *Session) PatientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients)
}

// IsMember reports whether id is the therapist or a joined patient.
func (s *Session) IsMember(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == s.therapist.ID {
		return true
	}
	_, ok := s.patients[id]
	return ok
}

// Join adds a patient. It fails with ErrSessionEnded on ended sessions
// and ErrSessionFull at capacity. The first join moves the session from
// Created to Active.
func (s *Session) Join(patientName string, now time.Time) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Ended {
		return Participant{}, ErrSessionEnded
	}
	if len(s.patients) >= s.maxPatients {
		return Participant{}, ErrSessionFull
	}

	p := &Participant{
		ID:        "patient_" + strings.Split(uuid.NewString(), "-")[0] + "_" + s.code,
		Role:      Patient,
		Name:      patientName,
		Connected: false,
		JoinedAt:  now,
	}
	s.patients[p.ID] = p
	s.joinOrder = append(s.joinOrder, p.ID)
	s.stats[p.ID] = NewPatientStats(s.historySize)
	s.state = Active

	return *p, nil
}

// Leave removes a patient. The session stays in its current state; a
// session does not revert to Created when its last patient leaves.
func (s *Session) Leave(patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[patientID]
	if !ok {
		return ErrUnknownPatient
	}
	s.departed[patientID] = *p
	delete(s.patients, patientID)
	for i, id := range s.joinOrder {
		if id == patientID {
			s.joinOrder = append(s.joinOrder[:i], s.joinOrder[i+1:]...)
			break
		}
	}
	// Stats and samples are retained for the final report.
	return nil
}

// SetConnected flips a member's connection flag. Unknown ids are
// ignored: a connection for a departed patient carries no state.
func (s *Session) SetConnected(id string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.therapist.ID {
		s.therapist.Connected = connected
		return
	}
	if p, ok := s.patients[id]; ok {
		p.Connected = connected
	}
}

// RecordAccuracy appends one accuracy sample for a patient, clamped
// into [0,100]. Duplicates are appended as-is.
func (s *Session) RecordAccuracy(patientID string, accuracy int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Ended {
		return ErrSessionEnded
	}
	st, ok := s.stats[patientID]
	if !ok {
		return ErrUnknownPatient
	}

	if accuracy < 0 {
		accuracy = 0
	} else if accuracy > 100 {
		accuracy = 100
	}
	st.Append(accuracy, now)
	return nil
}

// AddSample stores one pose-data submission for a patient, bounded by
// the sample limit. If the payload embeds an accuracy value it is also
// recorded as a sample, mirroring the pose-data API contract.
func (s *Session) AddSample(patientID string, sample report.PoseSample, now time.Time) error {
	s.mu.Lock()

	if s.state == Ended {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	if _, ok := s.stats[patientID]; !ok {
		s.mu.Unlock()
		return ErrUnknownPatient
	}

	if len(s.samples[patientID]) < s.sampleLimit {
		s.samples[patientID] = append(s.samples[patientID], sample)
	}
	s.mu.Unlock()

	if raw, ok := sample.Data["accuracy"]; ok {
		if acc, ok := raw.(float64); ok {
			return s.RecordAccuracy(patientID, int(acc), now)
		}
	}
	return nil
}

// StatsSnapshot returns a consistent copy of every patient's stats,
// keyed by patient id. The caller may read it without further locking.
func (s *Session) StatsSnapshot() map[string]StatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]StatsView, len(s.stats))
	for id, st := range s.stats {
		out[id] = st.View()
	}
	return out
}

// Stats returns one patient's stats view.
func (s *Session) Stats(patientID string) (StatsView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stats[patientID]
	if !ok {
		return StatsView{}, false
	}
	return st.View(), true
}

// End moves the session to its terminal state and builds the report.
// Ending twice returns ErrSessionEnded.
func (s *Session) End(now time.Time) (report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Ended {
		return report.Report{}, ErrSessionEnded
	}
	s.state = Ended
	s.endedAt = now

	return s.buildReportLocked(now), nil
}

// Report builds the report without ending the session.
func (s *Session) Report(now time.Time) report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildReportLocked(now)
}

func (s *Session) buildReportLocked(now time.Time) report.Report {
	endedAt := s.endedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	rep := report.Report{
		SessionCode:   s.code,
		TherapistName: s.therapist.Name,
		CreatedAt:     s.createdAt,
		EndedAt:       endedAt,
		Patients:      make([]report.Patient, 0, len(s.stats)),
	}

	// Every patient with recorded stats appears, including those who
	// left before the session ended.
	ids := make([]string, 0, len(s.stats))
	for id := range s.stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		st := s.stats[id]
		samples := s.samples[id]

		name := ""
		joinedAt := time.Time{}
		if p, ok := s.patients[id]; ok {
			name = p.Name
			joinedAt = p.JoinedAt
		} else if p, ok := s.departed[id]; ok {
			name = p.Name
			joinedAt = p.JoinedAt
		}

		current, _ := st.Current()
		rep.Patients = append(rep.Patients, report.Patient{
			PatientID:       id,
			PatientName:     name,
			JoinedAt:        joinedAt,
			TotalFrames:     len(samples),
			SampleCount:     st.Samples(),
			CurrentAccuracy: current,
			AverageAccuracy: st.Average(),
			MinAccuracy:     st.Min(),
			MaxAccuracy:     st.Max(),
			LastUpdate:      st.LastUpdate(),
			CommonErrors:    report.CommonErrors(samples),
			PoseDataSummary: report.Summarize(samples),
		})
	}
	return rep
}

// Describe returns a loggable one-line summary.
func (s *Session) Describe() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("session %s (%s, %d patients, exercise %s)",
		s.code, s.state, len(s.patients), s.exercise)
}
