package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/models"
	"paperharvest/pkg/storage"
)

const fileExt = ".json"

// FileStore keeps one JSON file per unit key in a directory.
type FileStore struct {
	dir      string
	dirPerm  os.FileMode
	filePerm os.FileMode
	logger   logger.Logger
}

// FileStoreOption configures a FileStore
type FileStoreOption func(*FileStore)

// WithPermissions overrides the directory and file modes
func WithPermissions(dirPerm, filePerm os.FileMode) FileStoreOption {
	return func(s *FileStore) {
		if dirPerm != 0 {
			s.dirPerm = dirPerm
		}
		if filePerm != 0 {
			s.filePerm = filePerm
		}
	}
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, log logger.Logger, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		dir:      dir,
		dirPerm:  0755,
		filePerm: 0644,
		logger:   logger.OrNop(log).WithField("component", "checkpoint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the checkpoint files
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path for key
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Exists checks if a checkpoint file exists
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "stat checkpoint %s", key)
	}
}

// Read loads the records stored for key
func (s *FileStore) Read(ctx context.Context, key string) ([]models.Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "read checkpoint %s", key)
	}
	return decode(key, data)
}

// Write saves the records for key atomically
func (s *FileStore) Write(ctx context.Context, key string, records []models.Record) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", key, err)
	}

	if err := os.MkdirAll(s.dir, s.dirPerm); err != nil {
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "create checkpoint directory")
	}
	if err := storage.WriteFileAtomic(s.Path(key), data, s.filePerm); err != nil {
		s.logger.WithError(err).WithField("unit", key).Error("Checkpoint write failed")
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "write checkpoint %s", key)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"unit":    key,
		"records": len(records),
		"path":    s.Path(key),
	})
	return nil
}

// ListKeys enumerates complete checkpoints. Temp files and files whose name
// is not a unit key are ignored.
func (s *FileStore) ListKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "list checkpoints")
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		key := strings.TrimSuffix(e.Name(), fileExt)
		if isKey(key) {
			keys = append(keys, key)
		}
	}
	return sortedKeys(keys), nil
}

// WrittenAt returns when key was last written (the file's modification time)
func (s *FileStore) WrittenAt(ctx context.Context, key string) (time.Time, error) {
	if err := validateKey(key); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return time.Time{}, errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "stat checkpoint %s", key)
	}
	return info.ModTime(), nil
}

// Delete removes the checkpoint file
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "delete checkpoint %s", key)
	}
	s.logger.WithField("unit", key).Info("Checkpoint deleted")
	return nil
}
