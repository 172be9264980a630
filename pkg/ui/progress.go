package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const barWidth = 20

// Progress prints one line per harvested unit with a running bar. It
// satisfies harvester.Progress.
type Progress struct {
	mu      sync.Mutex
	term    *Terminal
	total   int
	done    int
	records int
	failed  int
	started time.Time
	now     func() time.Time
}

// NewProgress creates a progress display on t (stdout when nil)
func NewProgress(t *Terminal) *Progress {
	if t == nil {
		t = std
	}
	return &Progress{term: t, now: time.Now}
}

// UnitStarted prints the unit being processed; index is 1-based
func (p *Progress) UnitStarted(key string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		p.started = p.now()
	}
	p.total = total
	p.term.Printf("%s %s %s\n", p.term.Magenta("→"), key, p.term.Dim(fmt.Sprintf("(%d/%d)", index, total)))
}

func (p *Progress) UnitFinished(key, outcome string, records int, took time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	mark := p.term.Green("✓")
	switch outcome {
	case "fetched", "fetched_empty":
		p.records += records
	case "skipped_cached":
		mark = p.term.Dim("•")
	case "interrupted":
		mark = p.term.Yellow("⚠")
		p.failed++
	default:
		mark = p.term.Red("✗")
		p.failed++
	}

	line := fmt.Sprintf("%s %s %s %d records %s", mark, key, outcome, records, p.term.Dim(FormatDuration(took)))
	p.term.Printf("%s  %s\n", line, p.bar())
}

func (p *Progress) Waiting(d time.Duration) {
	if d <= 0 {
		return
	}
	p.term.Printf("  %s\n", p.term.Dim("waiting "+FormatDuration(d)))
}

// Complete prints the totals of the run
func (p *Progress) Complete(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Duration(0)
	if !p.started.IsZero() {
		elapsed = p.now().Sub(p.started)
	}
	p.term.Printf("\n%s %d units, %d new records in %s\n", p.term.Green("✓"), p.done, p.records, FormatDuration(elapsed))
	if summary != "" {
		p.term.Printf("  %s %s\n", p.term.Dim("•"), summary)
	}
	if p.failed > 0 {
		p.term.Printf("  %s %s\n", p.term.Dim("•"), p.term.Red(fmt.Sprintf("%d units need another run", p.failed)))
	}
}

func (p *Progress) bar() string {
	if p.total <= 0 {
		return ""
	}
	filled := p.done * barWidth / p.total
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %d/%d", strings.Repeat("━", filled), strings.Repeat("─", barWidth-filled), p.done, p.total)
}

// FormatDuration formats d as 42s, 3m5s or 2h10m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
