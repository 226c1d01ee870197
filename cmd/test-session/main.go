package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/physio/internal/simsession"
)

// Default configuration constants.
const (
	defaultPatients   = 2
	defaultFrames     = 50
	defaultInterval   = 50 * time.Millisecond
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8000", "Base URL of the service")
		numPatients = flag.Int("patients", defaultPatients, "Number of patients to join")
		numFrames   = flag.Int("frames", defaultFrames, "Pose frames streamed per patient")
		exerciseKey = flag.String("exercise", "squat", "Exercise profile to perform")
		interval    = flag.Duration("interval", defaultInterval, "Delay between streamed frames")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for run output (default: session_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simsession.ShowHelp()
		return
	}

	// Setup logging
	if err := simsession.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &simsession.Config{
		BaseURL:  *baseURL,
		Patients: *numPatients,
		Frames:   *numFrames,
		Exercise: *exerciseKey,
		Interval: *interval,
		Timeout:  *timeout,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	// Run the session
	if err := simsession.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Session run failed: " + err.Error() + "\n")
		return
	}
}
