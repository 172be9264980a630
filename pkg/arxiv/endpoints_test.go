package arxiv

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmittedDateQuery(t *testing.T) {
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "submittedDate:[202403090000 TO 202403092359]", SubmittedDateQuery(start, start.AddDate(0, 0, 1)))
	assert.Equal(t, "submittedDate:[202403090000 TO 202403152359]", SubmittedDateQuery(start, start.AddDate(0, 0, 7)))
	assert.Equal(t, "submittedDate:[202403090000 TO 202403090000]", SubmittedDateQuery(start, start))
}

func TestPageURL(t *testing.T) {
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	raw := PageURL(DefaultBaseURL, start, start.AddDate(0, 0, 1), 200, 100, false)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "export.arxiv.org", u.Host)
	q := u.Query()
	assert.Equal(t, "submittedDate:[202403090000 TO 202403092359]", q.Get("search_query"))
	assert.Equal(t, "200", q.Get("start"))
	assert.Equal(t, "100", q.Get("max_results"))
	assert.Equal(t, "submittedDate", q.Get("sortBy"))
	assert.Equal(t, "descending", q.Get("sortOrder"))
}

func TestPageURLClampsSize(t *testing.T) {
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		size int
		want string
	}{
		{0, "100"},
		{-5, "100"},
		{5000, "2000"},
		{250, "250"},
	}
	for _, tt := range tests {
		u, err := url.Parse(PageURL(DefaultBaseURL, start, start.AddDate(0, 0, 1), 0, tt.size, true))
		require.NoError(t, err)
		assert.Equal(t, tt.want, u.Query().Get("max_results"))
		assert.Equal(t, "ascending", u.Query().Get("sortOrder"))
	}
}
