package checkpoint

import (
	"context"
	"time"

	"paperharvest/pkg/models"
	"paperharvest/pkg/timeunit"
)

// SplitStore keeps day checkpoints and multi-day chunk checkpoints in
// separate stores, routing each key by the granularity it encodes.
type SplitStore struct {
	days   Store
	chunks Store
}

// NewSplitStore routes chunk keys to chunks and everything else to days
func NewSplitStore(days, chunks Store) *SplitStore {
	return &SplitStore{days: days, chunks: chunks}
}

func (s *SplitStore) route(key string) Store {
	u, err := timeunit.ParseKey(key)
	if err == nil && u.Granularity() == timeunit.Chunk {
		return s.chunks
	}
	// invalid keys are rejected by the day store
	return s.days
}

func (s *SplitStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.route(key).Exists(ctx, key)
}

func (s *SplitStore) Read(ctx context.Context, key string) ([]models.Record, error) {
	return s.route(key).Read(ctx, key)
}

func (s *SplitStore) Write(ctx context.Context, key string, records []models.Record) error {
	return s.route(key).Write(ctx, key, records)
}

// ListKeys merges both namespaces
func (s *SplitStore) ListKeys(ctx context.Context) ([]string, error) {
	days, err := s.days.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunks.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(append(append([]string{}, days...), chunks...)), nil
}

func (s *SplitStore) WrittenAt(ctx context.Context, key string) (time.Time, error) {
	return s.route(key).WrittenAt(ctx, key)
}

func (s *SplitStore) Delete(ctx context.Context, key string) error {
	return s.route(key).Delete(ctx, key)
}
