package simsession

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/physio/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "session_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the session driver tool.
func ShowHelp() {
	os.Stdout.WriteString(`Physio Session Driver
=====================

Drives a complete therapy session against a running service: creates a
session, joins patients, streams synthetic exercise poses over the
realtime channel, exchanges feedback, then ends the session and checks
the final report.

Usage:
  go run cmd/test-session/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -patients int
        Number of patients to join (default 2)
  -frames int
        Pose frames streamed per patient (default 50)
  -exercise string
        Exercise profile to perform (default "squat")
  -interval duration
        Delay between streamed frames (default 50ms)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: session_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Drive a session with default settings
  go run cmd/test-session/main.go

  # Three patients doing lateral raises, faster streaming
  go run cmd/test-session/main.go -patients 3 -exercise lateral_raise -interval 20ms
`)
}
