package arxiv

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/models"
)

// page is one decoded API response
type page struct {
	Records []models.Record
	// Total is opensearch:totalResults, or -1 when absent
	Total int
}

var whitespace = regexp.MustCompile(`\s+`)

// parsePage decodes an Atom response body
func parsePage(body []byte) (*page, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "decode atom feed")
	}

	p := &page{
		Total:   extensionInt(feed.Extensions, "opensearch", "totalResults", -1),
		Records: make([]models.Record, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		// query errors come back as a single entry under /api/errors
		if strings.Contains(item.GUID, "/api/errors") {
			return nil, errs.New(errs.ErrorTypeSource, "arXiv rejected the query: %s", strings.TrimSpace(item.Description))
		}
		p.Records = append(p.Records, toRecord(item))
	}
	return p, nil
}

func toRecord(item *gofeed.Item) models.Record {
	r := models.Record{
		ID:              item.GUID,
		Title:           collapse(item.Title),
		Abstract:        strings.TrimSpace(item.Description),
		Authors:         make([]string, 0, len(item.Authors)),
		Categories:      append([]string{}, item.Categories...),
		PrimaryCategory: extensionAttr(item.Extensions, "arxiv", "primary_category", "term"),
	}
	if r.ID == "" {
		r.ID = item.Link
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			r.Authors = append(r.Authors, collapse(a.Name))
		}
	}
	if item.PublishedParsed != nil {
		r.Published = item.PublishedParsed.UTC()
	} else if t, err := time.Parse(time.RFC3339, item.Published); err == nil {
		r.Published = t.UTC()
	}
	r.PDFURL = pdfLink(item, r.ID)
	if r.PrimaryCategory == "" && len(r.Categories) > 0 {
		r.PrimaryCategory = r.Categories[0]
	}
	return r
}

// pdfLink picks the entry's /pdf/ link, falling back to rewriting the
// abstract URL.
func pdfLink(item *gofeed.Item, id string) string {
	for _, l := range item.Links {
		if strings.Contains(l, "/pdf/") {
			return l
		}
	}
	if strings.Contains(id, "/abs/") {
		return strings.Replace(id, "/abs/", "/pdf/", 1)
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func firstExtension(e ext.Extensions, prefix, name string) (ext.Extension, bool) {
	if e == nil {
		return ext.Extension{}, false
	}
	values := e[prefix][name]
	if len(values) == 0 {
		return ext.Extension{}, false
	}
	return values[0], true
}

func extensionAttr(e ext.Extensions, prefix, name, attr string) string {
	if x, ok := firstExtension(e, prefix, name); ok {
		return x.Attrs[attr]
	}
	return ""
}

func extensionInt(e ext.Extensions, prefix, name string, fallback int) int {
	x, ok := firstExtension(e, prefix, name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(x.Value))
	if err != nil {
		return fallback
	}
	return n
}
