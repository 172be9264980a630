package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paperharvest/pkg/logger"
	"paperharvest/pkg/models"
)

const (
	// LatestName is the artifact refreshed by daily runs
	LatestName = "latest.json"
	// EmergencySuffix marks artifacts written when a run aborts
	EmergencySuffix = ".emergency.json"

	dateLayout = "2006-01-02"
)

// Manager writes run-level artifacts (combined, latest, emergency) into an
// output directory.
type Manager struct {
	outputDir string
	dirPerm   os.FileMode
	filePerm  os.FileMode
	logger    logger.Logger
	mu        sync.Mutex
}

// NewManager creates a new artifact manager. The directory is created lazily.
func NewManager(outputDir string, log logger.Logger) *Manager {
	return &Manager{
		outputDir: outputDir,
		dirPerm:   0755,
		filePerm:  0644,
		logger:    logger.OrNop(log).WithField("component", "storage"),
	}
}

// SetPermissions overrides directory and file modes; zero keeps the default
func (m *Manager) SetPermissions(dirPerm, filePerm os.FileMode) {
	if dirPerm != 0 {
		m.dirPerm = dirPerm
	}
	if filePerm != 0 {
		m.filePerm = filePerm
	}
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// CombinedPath is the path of the combined artifact for a run started on runDate
func (m *Manager) CombinedPath(runDate time.Time) string {
	return filepath.Join(m.outputDir, runDate.UTC().Format(dateLayout)+".json")
}

// WriteCombined writes the run aggregate, named by the invocation date
func (m *Manager) WriteCombined(runDate time.Time, records []models.Record) (string, error) {
	path := m.CombinedPath(runDate)
	return path, m.writeJSON(path, records)
}

// WriteLatest replaces latest.json with records
func (m *Manager) WriteLatest(records []models.Record) (string, error) {
	path := filepath.Join(m.outputDir, LatestName)
	return path, m.writeJSON(path, records)
}

// WriteEmergency persists the in-memory aggregate of an aborted run. The
// name carries the invocation time so successive aborts on one day do not
// overwrite each other. If the output directory cannot be written, the
// artifact goes to the OS temp directory instead.
func (m *Manager) WriteEmergency(runStarted time.Time, records []models.Record) (string, error) {
	name := runStarted.UTC().Format("2006-01-02_150405") + EmergencySuffix

	path := filepath.Join(m.outputDir, name)
	err := m.writeJSON(path, records)
	if err == nil {
		return path, nil
	}

	m.logger.WithError(err).Warn("Emergency write to output directory failed, using temp directory")
	fallback := filepath.Join(os.TempDir(), "paperharvest-"+name)
	if ferr := m.writeJSON(fallback, records); ferr != nil {
		return "", fmt.Errorf("emergency persistence failed: %w (fallback: %v)", err, ferr)
	}
	return fallback, nil
}

func (m *Manager) writeJSON(path string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), m.dirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := WriteFileAtomic(path, data, m.filePerm); err != nil {
		return err
	}

	m.logger.InfoWithFields("Artifact written", map[string]interface{}{
		"path":    path,
		"records": len(records),
	})
	return nil
}

// ReadArtifact loads a JSON array of records written by this package
func ReadArtifact(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return records, nil
}
