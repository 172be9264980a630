package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"paperharvest/pkg/config"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "json format", cfg: &config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "invalid log level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(dir, "logs", "harvest.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := NewWithWriter(tt.cfg, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithWriter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && log == nil {
				t.Fatal("NewWithWriter() returned nil logger")
			}
		})
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.log")
	var console bytes.Buffer

	log, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path, NoColor: true}, &console)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	log.WithField("unit", "2024-03-09").Info("Unit fetched")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"unit":"2024-03-09"`) {
		t.Errorf("log file missing field, got %q", data)
	}
	if !strings.Contains(string(data), `"app":"paperharvest"`) {
		t.Errorf("log file missing app field, got %q", data)
	}
	if !strings.Contains(console.String(), "Unit fetched") {
		t.Errorf("console output missing message, got %q", console.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.
		WithField("unit", "2024-03-09").
		WithFields(map[string]interface{}{"attempt": 2, "empty": false}).
		WithError(errors.New("connection reset")).
		Info("chained fields")

	output := buf.String()
	for _, want := range []string{`"unit":"2024-03-09"`, `"attempt":2`, `"empty":false`, `"error":"connection reset"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestWithFieldDoesNotLeakToParent(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	_ = log.WithField("child", true)
	log.Info("parent")

	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger picked up child field: %s", buf.String())
	}
}

func TestWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)
	if log.WithError(nil) != Logger(log) {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(456),
		"float":    3.5,
		"time":     time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "x"},
	})

	output := buf.String()
	if !strings.Contains(output, `"strings":["a","b"]`) {
		t.Errorf("strings field not encoded: %s", output)
	}
	if !strings.Contains(output, `"custom":{"Name":"x"}`) {
		t.Errorf("custom field not encoded: %s", output)
	}
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("unit", "2024-03-09").WithError(errors.New("boom"))

	child.Warn("unit failed")
	tl.Info("plain")

	msgs := tl.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Fields["unit"] != "2024-03-09" || msgs[0].Error == nil {
		t.Errorf("child context not captured: %+v", msgs[0])
	}
	if !tl.HasMessage("plain") || tl.HasError() {
		t.Error("unexpected capture state")
	}
	if len(tl.GetMessagesByLevel("WARN")) != 1 {
		t.Error("expected one WARN message")
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 || tl.String() != "" {
		t.Error("Clear() did not reset capture")
	}
}

func TestNopLogger(t *testing.T) {
	log := OrNop(nil)
	log.WithField("k", "v").Info("ignored")
	if log.GetZerolog() == nil {
		t.Error("nop logger should expose a zerolog instance")
	}
}
