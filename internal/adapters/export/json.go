// Package export persists session reports as JSON documents on disk.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/physio/internal/domain/report"
	"github.com/okian/physio/pkg/metrics"
)

const dirPerm = 0o755

// Exporter writes one file per ended session into a report directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Exporter) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New creates an exporter rooted at dir. The directory is created on
// first use.
func New(dir string, opts ...Option) *Exporter {
	e := &Exporter{dir: dir, now: time.Now}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Write stores the report as pretty-printed JSON and returns the file
// path. File names embed the session code and the export time, so
// reusing a code never overwrites an earlier report.
func (e *Exporter) Write(rep report.Report) (string, error) {
	if err := os.MkdirAll(e.dir, dirPerm); err != nil {
		metrics.RecordExportError()
		return "", fmt.Errorf("create report directory: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		metrics.RecordExportError()
		return "", fmt.Errorf("encode report: %w", err)
	}

	name := fmt.Sprintf("report_%s_%d.json", rep.SessionCode, e.now().Unix())
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		metrics.RecordExportError()
		return "", fmt.Errorf("write report file: %w", err)
	}

	metrics.RecordReportExported()
	return path, nil
}
