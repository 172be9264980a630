package timeunit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOf(t *testing.T) {
	u := DayOf(time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC))

	assert.Equal(t, "2024-03-09", u.Key())
	assert.Equal(t, date(2024, 3, 9), u.Start())
	assert.Equal(t, date(2024, 3, 10), u.End())
	assert.Equal(t, 1, u.Days())
	assert.Equal(t, Day, u.Granularity())
	assert.True(t, u.Contains(date(2024, 3, 9)))
	assert.False(t, u.Contains(date(2024, 3, 10)), "end is exclusive")
}

func TestDayOfNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	u := DayOf(time.Date(2024, 3, 10, 3, 0, 0, 0, loc))
	assert.Equal(t, "2024-03-09", u.Key())
}

func TestNewChunk(t *testing.T) {
	u := NewChunk(date(2024, 2, 27), 7)
	assert.Equal(t, Chunk, u.Granularity())
	assert.Equal(t, 7, u.Days())
	assert.Equal(t, date(2024, 3, 5), u.End())
	assert.Equal(t, "2024-02-27..2024-03-04", u.String())
	assert.Equal(t, "2024-02-27_2024-03-04", u.Key())

	assert.Equal(t, Day, NewChunk(date(2024, 2, 27), 1).Granularity())
}

func TestParseKey(t *testing.T) {
	u, err := ParseKey("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), u.Start())

	assert.Equal(t, Day, u.Granularity())

	for _, bad := range []string{"2024-02-30", "latest", "2024-02-01_", "2024-02-01_2024-02-01", "2024-02-07_2024-02-01", "../escape"} {
		_, err = ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseChunkKey(t *testing.T) {
	u, err := ParseKey("2024-02-01_2024-02-14")
	require.NoError(t, err)
	assert.Equal(t, Chunk, u.Granularity())
	assert.Equal(t, date(2024, 2, 1), u.Start())
	assert.Equal(t, date(2024, 2, 15), u.End())
	assert.Equal(t, 14, u.Days())
}

func TestChunkKeysEncodeWidth(t *testing.T) {
	week := NewChunk(date(2024, 2, 1), 7)
	fortnight := NewChunk(date(2024, 2, 1), 14)
	assert.NotEqual(t, week.Key(), fortnight.Key())
	assert.NotEqual(t, DayOf(date(2024, 2, 1)).Key(), week.Key())

	for _, u := range []Unit{week, fortnight, DayOf(date(2024, 2, 1))} {
		back, err := ParseKey(u.Key())
		require.NoError(t, err)
		assert.Equal(t, u, back)
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("chunk")
	require.NoError(t, err)
	assert.Equal(t, Chunk, g)

	_, err = ParseGranularity("week")
	assert.Error(t, err)
}
