package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperharvest/pkg/checkpoint"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/models"
	"paperharvest/pkg/timeunit"
)

var now = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func newScanner(t *testing.T, done ...string) (*Scanner, checkpoint.Store) {
	t.Helper()
	store := checkpoint.NewFileStore(t.TempDir(), nil)
	for _, k := range done {
		require.NoError(t, store.Write(context.Background(), k, []models.Record{}))
	}
	return New(store, nil, WithClock(func() time.Time { return now })), store
}

func TestFindMissingSmallHorizon(t *testing.T) {
	s, _ := newScanner(t, "2024-03-08", "2024-03-06")

	units, err := s.FindMissing(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-05", "2024-03-07", "2024-03-09"}, timeunit.Keys(units))
}

func TestFindMissingExcludesToday(t *testing.T) {
	s, _ := newScanner(t)

	units, err := s.FindMissing(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-09"}, timeunit.Keys(units))
}

func TestFindMissingLargeHorizonCapped(t *testing.T) {
	done := []string{"2024-03-09", "2024-03-01", "2023-12-25"}
	s, store := newScanner(t, done...)

	units, err := s.FindMissing(context.Background(), 3650, 90)
	require.NoError(t, err)
	require.Len(t, units, 90)

	keys, err := checkpoint.KeySet(context.Background(), store)
	require.NoError(t, err)
	for i, u := range units {
		_, present := keys[u.Key()]
		assert.False(t, present, "checkpointed key %s returned", u.Key())
		assert.Equal(t, timeunit.Day, u.Granularity())
		if i > 0 {
			assert.True(t, units[i-1].Start().Before(u.Start()), "not ascending at %d", i)
		}
	}
	// the nearest gaps are taken first
	assert.Equal(t, "2024-03-08", units[len(units)-1].Key())
}

func TestFindMissingNothingMissing(t *testing.T) {
	s, _ := newScanner(t, "2024-03-09", "2024-03-08", "2024-03-07")

	units, err := s.FindMissing(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestFindMissingInvalidHorizon(t *testing.T) {
	s, _ := newScanner(t)

	_, err := s.FindMissing(context.Background(), 0, 10)
	assert.True(t, errs.Is(err, errs.ErrorTypeInvalidRange))
}

type brokenStore struct{ checkpoint.Store }

func (brokenStore) ListKeys(context.Context) ([]string, error) {
	return nil, errs.Wrap(errs.ErrorTypeStorageUnavailable, errors.New("EIO"), "list checkpoints")
}

func TestFindMissingStorageFailure(t *testing.T) {
	s := New(brokenStore{}, nil, WithClock(func() time.Time { return now }))

	_, err := s.FindMissing(context.Background(), 10, 10)
	assert.True(t, errs.IsFatal(err))
}
