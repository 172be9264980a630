package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperharvest/pkg/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{ID: "http://arxiv.org/abs/2403.00002v1", Title: "B"},
		{ID: "http://arxiv.org/abs/2403.00001v1", Title: "A"},
	}
}

func TestWriteCombined(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "data")
	m := NewManager(dir, nil)

	path, err := m.WriteCombined(time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-03-10.json"), path)

	got, err := ReadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got, "order is preserved")
}

func TestWriteLatestEmpty(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	path, err := m.WriteLatest(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestWriteEmergency(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, nil)

	started := time.Date(2024, 3, 10, 9, 30, 15, 0, time.UTC)
	path, err := m.WriteEmergency(started, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-03-10_093015.emergency.json"), path)
	assert.NotEqual(t, m.CombinedPath(started), path)

	got, err := ReadArtifact(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWriteEmergencyFallsBackToTempDir(t *testing.T) {
	// a regular file where the output directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m := NewManager(filepath.Join(blocker, "out"), nil)
	path, err := m.WriteEmergency(time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC), sampleRecords())
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	assert.Equal(t, os.TempDir(), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, EmergencySuffix))
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-03-09.json")

	require.NoError(t, WriteFileAtomic(path, []byte("[]"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte(`[{"id":"x"}]`), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, string(data))
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "f.json"), []byte("[]"), 0644)
	assert.Error(t, err)
}
