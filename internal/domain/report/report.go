// Package report aggregates per-patient session outcomes into the
// document handed to the export collaborator when a session ends.
package report

import (
	"sort"
	"time"
)

// Limits on report contents.
const (
	topErrorCount   = 5
	samplePoseCount = 10
)

// PoseSample is one stored pose-data submission. Data is the opaque
// payload from the client; the report only inspects the optional
// "errors" list inside it.
type PoseSample struct {
	UserID    string         `json:"user_id"`
	Timestamp float64        `json:"timestamp"`
	Data      map[string]any `json:"pose_data"`
}

// Summary condenses a patient's pose samples.
type Summary struct {
	TotalSamples int          `json:"total_samples"`
	SamplePoses  []PoseSample `json:"sample_poses"`
}

// Patient is the per-patient aggregate in a session report.
type Patient struct {
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	JoinedAt        time.Time `json:"joined_at"`
	TotalFrames     int       `json:"total_frames"`
	SampleCount     int       `json:"sample_count"`
	CurrentAccuracy int       `json:"current_accuracy"`
	AverageAccuracy float64   `json:"average_accuracy"`
	MinAccuracy     int       `json:"min_accuracy"`
	MaxAccuracy     int       `json:"max_accuracy"`
	LastUpdate      time.Time `json:"last_update"`
	CommonErrors    []string  `json:"common_errors"`
	PoseDataSummary Summary   `json:"pose_data_summary"`
}

// Report is the full session report.
type Report struct {
	SessionCode   string    `json:"session_code"`
	TherapistName string    `json:"therapist_name"`
	CreatedAt     time.Time `json:"created_at"`
	EndedAt       time.Time `json:"ended_at"`
	Patients      []Patient `json:"patients"`
}

// Summarize keeps the first few sample poses alongside the total count.
func Summarize(samples []PoseSample) Summary {
	keep := samples
	if len(keep) > samplePoseCount {
		keep = keep[:samplePoseCount]
	}
	out := make([]PoseSample, len(keep))
	copy(out, keep)
	return Summary{TotalSamples: len(samples), SamplePoses: out}
}

// CommonErrors returns the most frequent error lines across samples,
// most frequent first, capped at five. Ties break alphabetically so the
// output is deterministic.
func CommonErrors(samples []PoseSample) []string {
	counts := make(map[string]int)
	for _, s := range samples {
		raw, ok := s.Data["errors"]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, e := range list {
			if msg, ok := e.(string); ok {
				counts[msg]++
			}
		}
	}

	msgs := make([]string, 0, len(counts))
	for msg := range counts {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if counts[msgs[i]] != counts[msgs[j]] {
			return counts[msgs[i]] > counts[msgs[j]]
		}
		return msgs[i] < msgs[j]
	})

	if len(msgs) > topErrorCount {
		msgs = msgs[:topErrorCount]
	}
	return msgs
}
