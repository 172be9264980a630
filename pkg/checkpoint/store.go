package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/models"
	"paperharvest/pkg/timeunit"
)

// ErrNotFound is returned by Read for a key that has no checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Store is a durable mapping from unit key to the unit's records.
type Store interface {
	// Exists reports whether key has a checkpoint, even an empty one.
	Exists(ctx context.Context, key string) (bool, error)
	// Read returns the stored records; ErrNotFound if absent, a
	// corrupt_checkpoint error if the payload cannot be decoded.
	Read(ctx context.Context, key string) ([]models.Record, error)
	// Write atomically stores records under key, replacing any previous entry.
	Write(ctx context.Context, key string, records []models.Record) error
	// ListKeys returns every checkpointed key in ascending order.
	ListKeys(ctx context.Context) ([]string, error)
	// WrittenAt returns when key's checkpoint was last written.
	WrittenAt(ctx context.Context, key string) (time.Time, error)
	// Delete invalidates a checkpoint. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// KeySet loads the store's keys into a set.
func KeySet(ctx context.Context, s Store) (map[string]struct{}, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

func validateKey(key string) error {
	if _, err := timeunit.ParseKey(key); err != nil {
		return errs.Wrap(errs.ErrorTypeInvalidRange, err, "bad checkpoint key")
	}
	return nil
}

func isKey(name string) bool {
	_, err := timeunit.ParseKey(name)
	return err == nil
}

func encode(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

func decode(key string, data []byte) ([]models.Record, error) {
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCorruptCheckpoint, err, "decode checkpoint %s", key)
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
