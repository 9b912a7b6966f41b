package logging

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/aceperf/internal/config"
)

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestCombinedWriter(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("already-here")
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	n, err := cw.Write([]byte("a message"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2*len("a message") {
		t.Errorf("n = %d, want %d", n, 2*len("a message"))
	}
	if sb1.String() != "already-herea message" || sb2.String() != "a message" {
		t.Errorf("writers = %q, %q", sb1.String(), sb2.String())
	}
}

func TestCombinedWriterKeepsGoingOnError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	sb := &strings.Builder{}

	cw := NewCombinedWriter(failingWriter{errA}, sb, failingWriter{errB})
	n, err := cw.Write([]byte("hello"))
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v, want both writer errors", err)
	}
	if sb.String() != "hello" {
		t.Errorf("healthy writer got %q", sb.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aceperf")
	log, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("routine imported", "routine", "Week 1 - Full Body 1")
	log.Debug("dropped")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path + ".log")
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"routine":"Week 1 - Full Body 1"`) {
		t.Errorf("log file missing entry: %s", out)
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("debug entry written at info level: %s", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
