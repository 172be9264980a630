// Package ui prints the human-facing side of paperharvest: colored status
// lines for commands and a per-unit progress display for harvest runs.
// Structured logs go through pkg/logger instead.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Logo printed by the root command
const Logo = `
  ┌─┐┌─┐┌─┐┌─┐┬─┐┬ ┬┌─┐┬─┐┬  ┬┌─┐┌─┐┌┬┐
  ├─┘├─┤├─┘├┤ ├┬┘├─┤├─┤├┬┘└┐┌┘├┤ └─┐ │
  ┴  ┴ ┴┴  └─┘┴└─┴ ┴┴ ┴┴└─ └┘ └─┘└─┘ ┴
`

const (
	cyan    = "\033[36m"
	yellow  = "\033[33m"
	red     = "\033[31m"
	green   = "\033[32m"
	magenta = "\033[35m"
	dim     = "\033[2m"
	reset   = "\033[0m"
)

// Terminal writes colored lines to an output stream
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	quiet bool
}

// NewTerminal writes to out. Color is enabled only when out is a terminal.
func NewTerminal(out io.Writer) *Terminal {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{out: out, color: color}
}

var std = NewTerminal(os.Stdout)

// Default returns the stdout terminal used by the package-level helpers
func Default() *Terminal { return std }

// SetColor forces color on or off
func (t *Terminal) SetColor(on bool) {
	t.mu.Lock()
	t.color = on
	t.mu.Unlock()
}

// SetQuiet suppresses everything except errors
func (t *Terminal) SetQuiet(on bool) {
	t.mu.Lock()
	t.quiet = on
	t.mu.Unlock()
}

// Quiet reports whether non-error output is suppressed
func (t *Terminal) Quiet() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quiet
}

func (t *Terminal) paint(code, text string) string {
	if !t.color {
		return text
	}
	return code + text + reset
}

func (t *Terminal) Cyan(s string) string    { return t.paint(cyan, s) }
func (t *Terminal) Yellow(s string) string  { return t.paint(yellow, s) }
func (t *Terminal) Red(s string) string     { return t.paint(red, s) }
func (t *Terminal) Green(s string) string   { return t.paint(green, s) }
func (t *Terminal) Magenta(s string) string { return t.paint(magenta, s) }
func (t *Terminal) Dim(s string) string     { return t.paint(dim, s) }

// Printf writes unless the terminal is quiet
func (t *Terminal) Printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quiet {
		return
	}
	fmt.Fprintf(t.out, format, args...)
}

// Logo prints the banner in cyan
func (t *Terminal) Logo() {
	t.Printf("%s\n", t.Cyan(Logo))
}

// Error prints msg in red, followed by detail when given. Errors are shown
// even in quiet mode.
func (t *Terminal) Error(msg, detail string) {
	if detail != "" {
		msg += ": " + detail
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.paint(red, msg))
}

// Warning prints msg in yellow
func (t *Terminal) Warning(msg, detail string) {
	if detail != "" {
		msg += ": " + detail
	}
	t.Printf("%s\n", t.Yellow(msg))
}

// Success prints msg in green
func (t *Terminal) Success(msg string) {
	t.Printf("%s\n", t.Green(msg))
}

// Info prints a label/value pair
func (t *Terminal) Info(label, value string) {
	t.Printf("%s: %s\n", t.Cyan(label), t.Yellow(value))
}

// Highlight prints msg in magenta
func (t *Terminal) Highlight(msg string) {
	t.Printf("%s\n", t.Magenta(msg))
}

// PrintLogo prints the banner on stdout
func PrintLogo() { std.Logo() }

// PrintError prints an error line on stdout
func PrintError(msg, detail string) { std.Error(msg, detail) }

// PrintWarning prints a warning line on stdout
func PrintWarning(msg, detail string) { std.Warning(msg, detail) }

// PrintSuccess prints a success line on stdout
func PrintSuccess(msg string) { std.Success(msg) }

// PrintInfo prints a label/value line on stdout
func PrintInfo(label, value string) { std.Info(label, value) }

// PrintHighlight prints a highlighted line on stdout
func PrintHighlight(msg string) { std.Highlight(msg) }
