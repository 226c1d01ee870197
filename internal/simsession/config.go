package simsession

import "time"

// Config holds configuration for a simulated session run
type Config struct {
	BaseURL  string        // Base URL of the service
	Patients int           // Number of patients to join
	Frames   int           // Pose frames streamed per patient
	Exercise string        // Exercise profile to perform
	Interval time.Duration // Delay between streamed frames
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for run output
	Verbose  bool          // Enable verbose logging
}

// Stats holds run statistics
type Stats struct {
	FramesSent        int
	AccuracySent      int
	AccuracyReceived  int
	FeedbackSent      int
	FeedbackReceived  int
	PoseSamplesPosted int
	ReportPatients    int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
