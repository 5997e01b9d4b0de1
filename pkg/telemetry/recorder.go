package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// Recorder appends TickRecords to a CSV file, writing the header once.
// A nil *Recorder is valid and discards everything, so callers never branch on "telemetry enabled".
type Recorder struct {
	path          string
	runID         string
	file          *os.File
	headerWritten bool
	rows          int
}

// NewRecorder creates the CSV file at path, creating parent directories as needed.
// Returns nil if path is empty (telemetry disabled).
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating telemetry directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	return &Recorder{
		path:  path,
		runID: uuid.NewString(),
		file:  f,
	}, nil
}

// Write appends one record.
func (r *Recorder) Write(rec TickRecord) error {
	if r == nil {
		return nil
	}

	records := []TickRecord{rec}

	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}

	r.rows++
	return nil
}

// RunID identifies every row written by this recorder.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Path returns the CSV file path.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Rows returns how many records were written.
func (r *Recorder) Rows() int {
	if r == nil {
		return 0
	}
	return r.rows
}

// Close flushes and closes the CSV file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadRecords loads a telemetry CSV back, mostly for tests and offline analysis.
func ReadRecords(path string) ([]TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []TickRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return records, nil
}
