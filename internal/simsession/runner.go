package simsession

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/okian/physio/internal/adapters/http/api"
	"github.com/okian/physio/internal/adapters/realtime"
	"github.com/okian/physio/internal/domain/exercise"
	"github.com/okian/physio/internal/domain/pose"
	"github.com/okian/physio/internal/domain/report"
	"github.com/okian/physio/pkg/logger"
)

// Runner configuration constants.
const (
	accuracyEvery   = 5
	settleDelay     = 500 * time.Millisecond
	endAwaitTimeout = 10 * time.Second
)

// Run drives one complete session against a running service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting session driver",
		logger.String("baseURL", config.BaseURL),
		logger.Int("patients", config.Patients),
		logger.Int("frames", config.Frames),
		logger.String("exercise", config.Exercise),
		logger.String("interval", config.Interval.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create the session
	session, err := createSession(ctx, client, config)
	if err != nil {
		return fmt.Errorf("session creation failed: %w", err)
	}
	log.Printf("session %s created for %s", session.SessionCode, session.Exercise)

	// Step 3: Connect the therapist
	therapist, err := dialMember(ctx, config.BaseURL, session.SessionCode, session.TherapistID)
	if err != nil {
		return fmt.Errorf("therapist connect failed: %w", err)
	}

	// Step 4: Join and connect the patients
	patients, err := joinPatients(ctx, client, config, session.SessionCode)
	if err != nil {
		return fmt.Errorf("patient join failed: %w", err)
	}

	// Step 5: Stream synthetic exercise frames from every patient
	streamFrames(ctx, client, config, session.SessionCode, patients, stats)

	// Step 6: Therapist sends one feedback cue per patient
	if err := sendFeedback(therapist, patients, stats); err != nil {
		return fmt.Errorf("feedback send failed: %w", err)
	}

	// Let in-flight messages land before checking and ending.
	time.Sleep(settleDelay)

	// Step 7: Verify realtime delivery
	if err := verifyDelivery(therapist, patients, config, stats); err != nil {
		return fmt.Errorf("delivery verification failed: %w", err)
	}

	// Step 8: End the session and verify the report
	rep, err := endSession(ctx, client, config, session.SessionCode)
	if err != nil {
		return fmt.Errorf("session end failed: %w", err)
	}
	if err := verifyReport(rep, config, stats); err != nil {
		return fmt.Errorf("report verification failed: %w", err)
	}

	// Step 9: Every member observes the termination broadcast
	awaitCtx, cancel := context.WithTimeout(ctx, endAwaitTimeout)
	defer cancel()
	for _, p := range patients {
		if _, err := p.conn.awaitEnd(awaitCtx); err != nil {
			return fmt.Errorf("termination broadcast missing: %w", err)
		}
	}

	therapist.close()
	for _, p := range patients {
		p.conn.close()
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "session driver completed successfully")
	return nil
}

// patient bundles one simulated patient's identity and connection.
type patient struct {
	id   string
	name string
	conn *memberConn
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	return decodeResponse(resp, statusOK, nil)
}

func createSession(ctx context.Context, client *HTTPClient, config *Config) (api.SessionView, error) {
	var view api.SessionView
	resp, err := client.Post(ctx, config.BaseURL+"/api/sessions", map[string]string{
		"therapist_name": "Driver Therapist",
		"exercise":       config.Exercise,
	})
	if err != nil {
		return view, err
	}
	err = decodeResponse(resp, statusCreated, &view)
	return view, err
}

func joinPatients(ctx context.Context, client *HTTPClient, config *Config, code string) ([]*patient, error) {
	patients := make([]*patient, 0, config.Patients)
	for i := 0; i < config.Patients; i++ {
		name := fmt.Sprintf("Patient %d", i+1)

		var joined api.JoinView
		resp, err := client.Post(ctx, config.BaseURL+"/api/sessions/join", map[string]string{
			"session_code": code,
			"patient_name": name,
		})
		if err != nil {
			return nil, err
		}
		if err := decodeResponse(resp, statusOK, &joined); err != nil {
			return nil, err
		}

		conn, err := dialMember(ctx, config.BaseURL, code, joined.PatientID)
		if err != nil {
			return nil, err
		}
		patients = append(patients, &patient{id: joined.PatientID, name: name, conn: conn})
		log.Printf("%s joined as %s", name, joined.PatientID)
	}
	return patients, nil
}

// streamFrames runs every patient's exercise loop concurrently. Each
// patient validates frames locally and reports accuracy on a fixed
// stride, posting a matching pose sample over the REST endpoint.
func streamFrames(ctx context.Context, client *HTTPClient, config *Config, code string, patients []*patient, stats *Stats) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, p := range patients {
		wg.Add(1)
		go func(seed int64, p *patient) {
			defer wg.Done()

			engine := exercise.NewEngine()
			frames := generateFrames(config.Exercise, config.Frames, seed)

			var sent, accuracySent, posted int
			for n, frame := range frames {
				select {
				case <-ctx.Done():
					return
				default:
				}

				angles, ok := pose.JointAngles(frame)
				result := engine.Validate(angles, ok, frame, config.Exercise)
				sent++

				if n%accuracyEvery == 0 {
					env := realtime.Envelope{
						Type:     realtime.TypeAccuracyUpdate,
						Accuracy: realtime.IntPtr(result.Accuracy),
					}
					if err := p.conn.send(env); err != nil {
						log.Printf("%s: %v", p.id, err)
						return
					}
					accuracySent++

					resp, err := client.Post(ctx, config.BaseURL+"/api/pose-data", map[string]any{
						"session_code": code,
						"user_id":      p.id,
						"timestamp":    time.Now().UnixMilli(),
						"pose_data": map[string]any{
							"accuracy": float64(result.Accuracy),
							"is_valid": result.IsValid,
							"errors":   result.Errors,
						},
					})
					if err != nil {
						log.Printf("%s: pose post failed: %v", p.id, err)
					} else if err := decodeResponse(resp, statusAccepted, nil); err != nil {
						log.Printf("%s: pose post rejected: %v", p.id, err)
					} else {
						posted++
					}
				}

				time.Sleep(config.Interval)
			}

			mu.Lock()
			stats.FramesSent += sent
			stats.AccuracySent += accuracySent
			stats.PoseSamplesPosted += posted
			mu.Unlock()
		}(int64(i+1), p)
	}
	wg.Wait()
}

func sendFeedback(therapist *memberConn, patients []*patient, stats *Stats) error {
	for _, p := range patients {
		err := therapist.send(realtime.Envelope{
			Type:          realtime.TypeFeedback,
			TargetPatient: p.id,
			Message:       fmt.Sprintf("Nice pace, %s - keep the movement slow", p.name),
		})
		if err != nil {
			return err
		}
		stats.FeedbackSent++
	}
	return nil
}

// verifyDelivery checks that the realtime channel carried what was
// sent: accuracy to the therapist, feedback to each patient.
func verifyDelivery(therapist *memberConn, patients []*patient, config *Config, stats *Stats) error {
	stats.AccuracyReceived = int(therapist.accuracyReceived.Load())
	if stats.AccuracyReceived != stats.AccuracySent {
		return fmt.Errorf("therapist saw %d accuracy updates, patients sent %d",
			stats.AccuracyReceived, stats.AccuracySent)
	}

	for _, p := range patients {
		got := int(p.conn.feedbackReceived.Load())
		stats.FeedbackReceived += got
		if got != 1 {
			return fmt.Errorf("%s received %d feedback messages, want 1", p.id, got)
		}
	}

	joins := int(therapist.joinsSeen.Load())
	if joins != config.Patients {
		return fmt.Errorf("therapist saw %d joins, want %d", joins, config.Patients)
	}
	return nil
}

func endSession(ctx context.Context, client *HTTPClient, config *Config, code string) (report.Report, error) {
	var rep report.Report
	resp, err := client.Post(ctx, config.BaseURL+"/api/sessions/"+code+"/end", nil)
	if err != nil {
		return rep, err
	}
	err = decodeResponse(resp, statusOK, &rep)
	return rep, err
}

func verifyReport(rep report.Report, config *Config, stats *Stats) error {
	stats.ReportPatients = len(rep.Patients)
	if stats.ReportPatients != config.Patients {
		return fmt.Errorf("report holds %d patients, want %d", stats.ReportPatients, config.Patients)
	}

	for _, p := range rep.Patients {
		if p.SampleCount == 0 {
			return fmt.Errorf("%s has no recorded accuracy", p.PatientID)
		}
		if p.MinAccuracy > p.MaxAccuracy {
			return fmt.Errorf("%s has inverted accuracy bounds", p.PatientID)
		}
	}
	return nil
}

func displayFinalStats(stats *Stats) {
	log.Printf("frames validated:      %d", stats.FramesSent)
	log.Printf("accuracy sent/seen:    %d/%d", stats.AccuracySent, stats.AccuracyReceived)
	log.Printf("feedback sent/seen:    %d/%d", stats.FeedbackSent, stats.FeedbackReceived)
	log.Printf("pose samples posted:   %d", stats.PoseSamplesPosted)
	log.Printf("patients in report:    %d", stats.ReportPatients)
	log.Printf("duration:              %s", stats.Duration)
}
