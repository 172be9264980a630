package arxiv

import (
	"fmt"
	"strings"
	"time"
)

type testEntry struct {
	ID        string
	Title     string
	Published time.Time
	Authors   []string
	Primary   string
	Cats      []string
}

func entry(n int, published time.Time) testEntry {
	return testEntry{
		ID:        fmt.Sprintf("http://arxiv.org/abs/2403.%05dv1", n),
		Title:     fmt.Sprintf("Paper\n   number %d", n),
		Published: published,
		Authors:   []string{"Ada Lovelace", "Grace Hopper"},
		Primary:   "cs.LG",
		Cats:      []string{"cs.LG", "stat.ML"},
	}
}

func feedXML(total int, entries ...testEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query</title>
  <id>http://arxiv.org/api/test</id>
  <updated>2024-03-10T00:00:00-05:00</updated>
`)
	if total >= 0 {
		fmt.Fprintf(&b, "  <opensearch:totalResults>%d</opensearch:totalResults>\n", total)
	}
	for _, e := range entries {
		fmt.Fprintf(&b, `  <entry>
    <id>%s</id>
    <updated>%s</updated>
    <published>%s</published>
    <title>%s</title>
    <summary>  Abstract of %s.
    </summary>
`, e.ID, e.Published.Format(time.RFC3339), e.Published.Format(time.RFC3339), e.Title, e.ID)
		for _, a := range e.Authors {
			fmt.Fprintf(&b, "    <author><name>%s</name></author>\n", a)
		}
		pdf := strings.Replace(e.ID, "/abs/", "/pdf/", 1)
		fmt.Fprintf(&b, `    <link href="%s" rel="alternate" type="text/html"/>
    <link title="pdf" href="%s" rel="related" type="application/pdf"/>
`, e.ID, pdf)
		if e.Primary != "" {
			fmt.Fprintf(&b, "    <arxiv:primary_category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", e.Primary)
		}
		for _, c := range e.Cats {
			fmt.Fprintf(&b, "    <category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", c)
		}
		b.WriteString("  </entry>\n")
	}
	b.WriteString("</feed>\n")
	return b.String()
}
