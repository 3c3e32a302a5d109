package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/lgh0504/pscbfm/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	sweepsFile *os.File
	perfFile   *os.File

	sweepsHeaderWritten bool
	perfHeaderWritten   bool
}

// NewOutputManager creates the output directory and opens the CSV files.
// Returns nil if dir is empty (output disabled); all methods are safe on a
// nil receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "sweeps.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating sweeps.csv: %w", err)
	}
	om.sweepsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.sweepsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML next to the CSVs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSweep appends one sweep record to sweeps.csv.
func (om *OutputManager) WriteSweep(stats SweepStats) error {
	if om == nil {
		return nil
	}
	records := []SweepStats{stats}
	if !om.sweepsHeaderWritten {
		if err := gocsv.Marshal(records, om.sweepsFile); err != nil {
			return fmt.Errorf("writing sweeps: %w", err)
		}
		om.sweepsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.sweepsFile); err != nil {
		return fmt.Errorf("writing sweeps: %w", err)
	}
	return nil
}

// WritePerf appends one perf window record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, step int) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(step)}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if om.sweepsFile != nil {
		if err := om.sweepsFile.Close(); err != nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
