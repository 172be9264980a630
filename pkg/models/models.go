package models

import (
	"strings"
	"time"
)

// Record is one harvested paper. The JSON layout is the on-disk checkpoint
// format and must stay stable across runs.
type Record struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Abstract        string    `json:"abstract"`
	PDFURL          string    `json:"pdf_url"`
	Published       time.Time `json:"published"`
	Categories      []string  `json:"categories"`
	PrimaryCategory string    `json:"primary_category"`
}

// ShortID returns the last path segment of the record id, e.g.
// "2403.01234v1" for "http://arxiv.org/abs/2403.01234v1".
func (r Record) ShortID() string {
	id := strings.TrimRight(r.ID, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// AllCategories returns primary_category followed by categories, de-duplicated
// and with order preserved.
func (r Record) AllCategories() []string {
	seen := make(map[string]struct{}, len(r.Categories)+1)
	out := make([]string, 0, len(r.Categories)+1)
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	add(r.PrimaryCategory)
	for _, c := range r.Categories {
		add(c)
	}
	return out
}
