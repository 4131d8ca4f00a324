package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hexarena/config"
)

// OutputManager writes sweep artifacts to an output directory: one
// results.csv row per run plus the best configuration as YAML. All methods
// are no-ops on a nil receiver so callers can skip the nil check when output
// is disabled.
type OutputManager struct {
	dir         string
	resultsFile *os.File

	headerWritten bool
}

// NewOutputManager creates the output directory and opens results.csv.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "results.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating results.csv: %w", err)
	}
	return &OutputManager{dir: dir, resultsFile: f}, nil
}

// WriteResult appends one run result to results.csv.
func (om *OutputManager) WriteResult(r RunResult) error {
	if om == nil {
		return nil
	}

	records := []RunResult{r}
	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.resultsFile); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.resultsFile); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// WriteBestConfig saves the winning configuration as best_config.yaml.
func (om *OutputManager) WriteBestConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "best_config.yaml"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes results.csv.
func (om *OutputManager) Close() error {
	if om == nil || om.resultsFile == nil {
		return nil
	}
	return om.resultsFile.Close()
}
