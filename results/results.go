// Package results persists the outcome of a harness run as a JSON
// document, one file per run, for archiving and later inspection.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tos-network/toslab/harness"
)

// RunResult is the on-disk record of one full run.
type RunResult struct {
	BaseURL  string            `json:"base_url"`
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Vectors  []harness.Verdict `json:"vectors"`
	Summary  harness.Summary   `json:"summary"`
	ExitCode int               `json:"exit_code"`
}

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteRun writes the run record to run-<unix-nanos>.json under the
// writer's directory, creating it if needed, and returns the path.
func (w *Writer) WriteRun(result RunResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("run-%d.json", time.Now().UnixNano()))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// NowRFC3339 is the timestamp format used throughout run records.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
