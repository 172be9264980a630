package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperharvest/pkg/checkpoint"
	"paperharvest/pkg/config"
	"paperharvest/pkg/models"
)

func sample() models.Record {
	return models.Record{
		ID:              "http://arxiv.org/abs/2403.01234v2",
		Title:           "Scaling Laws",
		Authors:         []string{"Ada Lovelace", "Grace Hopper"},
		Abstract:        "We study.",
		PDFURL:          "http://arxiv.org/pdf/2403.01234v2",
		Published:       time.Date(2024, 3, 9, 17, 0, 0, 0, time.FixedZone("EST", -5*3600)),
		Categories:      []string{"stat.ML", "cs.LG"},
		PrimaryCategory: "cs.LG",
	}
}

func TestFromRecord(t *testing.T) {
	p := FromRecord(sample())

	assert.Equal(t, "2403.01234v2", p.ArxivID)
	assert.Equal(t, []string{"Ada Lovelace", "Grace Hopper"}, p.Authors)
	assert.Equal(t, []string{"cs.LG", "stat.ML"}, p.Categories)
	require.NotNil(t, p.Published)
	assert.Equal(t, time.UTC, p.Published.Location())
	assert.Equal(t, 22, p.Published.Hour())
}

func TestFromRecordWithoutTimestamp(t *testing.T) {
	r := sample()
	r.Published = time.Time{}
	assert.Nil(t, FromRecord(r).Published)
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{}, "", nil)
	assert.Error(t, err)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{}, "postgres://%zz", nil)
	assert.Error(t, err)
}

// TestImportStore runs against a real server when PAPERHARVEST_TEST_DATABASE_URL is set.
func TestImportStore(t *testing.T) {
	dsn := os.Getenv("PAPERHARVEST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PAPERHARVEST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	imp, err := Open(ctx, config.DatabaseConfig{MaxConns: 2, ApplicationName: "paperharvest-test"}, dsn, nil)
	require.NoError(t, err)
	defer imp.Close()
	require.NoError(t, imp.EnsureSchema(ctx))

	store := checkpoint.NewFileStore(t.TempDir(), nil)
	require.NoError(t, store.Write(ctx, "2024-03-09", []models.Record{sample()}))
	require.NoError(t, store.Write(ctx, "2024-03-10", []models.Record{}))

	stats, err := imp.ImportStore(ctx, store, []string{"2024-03-09", "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Zero(t, stats.Failed)
	assert.Len(t, stats.Files, 2)

	// a second import updates in place
	stats, err = imp.ImportStore(ctx, store, []string{"2024-03-09"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)

	var n int
	require.NoError(t, imp.pool.QueryRow(ctx, `SELECT count(*) FROM papers WHERE arxiv_id = $1`, "2403.01234v2").Scan(&n))
	assert.Equal(t, 1, n)
}
