package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSONLayout(t *testing.T) {
	r := Record{
		ID:              "http://arxiv.org/abs/2403.01234v1",
		Title:           "A Title",
		Authors:         []string{"Ada", "Grace"},
		Abstract:        "Abstract.",
		PDFURL:          "http://arxiv.org/pdf/2403.01234v1",
		Published:       time.Date(2024, 3, 9, 17, 59, 59, 0, time.UTC),
		Categories:      []string{"cs.LG", "stat.ML"},
		PrimaryCategory: "cs.LG",
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "title", "authors", "abstract", "pdf_url", "published", "categories", "primary_category"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "2024-03-09T17:59:59Z", raw["published"])
}

func TestRecordDecodesOffsetTimestamps(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"id":"x","published":"2024-03-09T17:59:59+00:00"}`), &r)
	require.NoError(t, err)
	assert.True(t, r.Published.Equal(time.Date(2024, 3, 9, 17, 59, 59, 0, time.UTC)))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "2403.01234v1", Record{ID: "http://arxiv.org/abs/2403.01234v1"}.ShortID())
	assert.Equal(t, "2403.01234v1", Record{ID: "http://arxiv.org/abs/2403.01234v1/"}.ShortID())
	assert.Equal(t, "plain", Record{ID: "plain"}.ShortID())
}

func TestAllCategories(t *testing.T) {
	r := Record{PrimaryCategory: "cs.CV", Categories: []string{"cs.LG", "cs.CV", " ", "cs.LG", "eess.IV"}}
	assert.Equal(t, []string{"cs.CV", "cs.LG", "eess.IV"}, r.AllCategories())
	assert.Empty(t, Record{}.AllCategories())
}
