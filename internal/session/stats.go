package session

import (
	"time"
)

// PatientStats tracks one patient's accuracy over a session. The raw
// history is a bounded ring buffer; total count, sum and min/max are
// kept as streaming accumulators so aggregates survive eviction in long
// sessions. Each patient is the sole writer of its own entry; callers
// hold the owning session's lock.
type PatientStats struct {
	ring  []int
	head  int // next write position
	count int // entries currently in the ring

	total      int   // samples appended overall, including evicted
	sum        int64 // streaming sum over all samples
	minV, maxV int

	current    int
	hasCurrent bool
	lastUpdate time.Time
}

// NewPatientStats creates stats with a bounded history.
func NewPatientStats(historySize int) *PatientStats {
	if historySize < 1 {
		historySize = 1
	}
	return &PatientStats{ring: make([]int, historySize)}
}

// Append records one accuracy sample. Identical consecutive values are
// appended like any other: the protocol does no deduplication.
func (s *PatientStats) Append(accuracy int, now time.Time) {
	s.ring[s.head] = accuracy
	s.head = (s.head + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}

	if s.total == 0 || accuracy < s.minV {
		s.minV = accuracy
	}
	if s.total == 0 || accuracy > s.maxV {
		s.maxV = accuracy
	}
	s.total++
	s.sum += int64(accuracy)

	s.current = accuracy
	s.hasCurrent = true
	s.lastUpdate = now
}

// History returns the retained samples, oldest first.
func (s *PatientStats) History() []int {
	out := make([]int, s.count)
	start := s.head - s.count
	if start < 0 {
		start += len(s.ring)
	}
	for i := 0; i < s.count; i++ {
		out[i] = s.ring[(start+i)%len(s.ring)]
	}
	return out
}

// Samples returns how many samples were appended overall.
func (s *PatientStats) Samples() int {
	return s.total
}

// Current returns the latest sample; false when none was recorded.
func (s *PatientStats) Current() (int, bool) {
	return s.current, s.hasCurrent
}

// Average returns the running mean over every appended sample.
func (s *PatientStats) Average() float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.total)
}

// Min returns the lowest sample, 0 when none was recorded.
func (s *PatientStats) Min() int {
	return s.minV
}

// Max returns the highest sample, 0 when none was recorded.
func (s *PatientStats) Max() int {
	return s.maxV
}

// LastUpdate returns when the last sample arrived.
func (s *PatientStats) LastUpdate() time.Time {
	return s.lastUpdate
}

// StatsView is a consistent copy of one patient's stats, safe to read
// after the session lock is released.
type StatsView struct {
	History    []int
	Samples    int
	Current    int
	HasCurrent bool
	Average    float64
	Min, Max   int
	LastUpdate time.Time
}

// View snapshots the stats.
func (s *PatientStats) View() StatsView {
	current, has := s.Current()
	return StatsView{
		History:    s.History(),
		Samples:    s.Samples(),
		Current:    current,
		HasCurrent: has,
		Average:    s.Average(),
		Min:        s.Min(),
		Max:        s.Max(),
		LastUpdate: s.LastUpdate(),
	}
}
