// Package audit provides tests for the journal backends.
package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rcsp/pkg/logger"
)

// init sets up the global logger for testing purposes, suppressing informational logs.
func init() {
	logger.Init("error")
}

func solveEntry(status string, enumerator string, at time.Time) *Entry {
	e := NewEntry().
		Service("rcsp").
		Run("run-" + status).
		Instance("A", "D", 3, enumerator).
		Outcome(OutcomeSuccess, status).
		Build()
	e.Timestamp = at
	return e
}

func newTestFileLogger(t *testing.T) (*FileLogger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewFileLogger(&Config{
		Enabled:     true,
		Backend:     "file",
		FilePath:    path,
		BufferSize:  100,
		FlushPeriod: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	return l, path
}

// TestWriterLogger verifies that WriterLogger writes prefixed JSON lines.
func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&Config{Enabled: true}, &buf)
	defer l.Close()

	if err := l.Log(context.Background(), solveEntry("optimal", "eppstein", time.Now())); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("[AUDIT] {")) {
		t.Errorf("expected [AUDIT] prefix, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status":"optimal"`)) {
		t.Errorf("expected status in output, got %q", buf.String())
	}
}

// TestWriterLogger_Disabled verifies that a disabled WriterLogger writes nothing.
func TestWriterLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&Config{Enabled: false}, &buf)

	if err := l.Log(context.Background(), solveEntry("optimal", "eppstein", time.Now())); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// TestWriterLogger_Query verifies that Query is not supported by WriterLogger.
func TestWriterLogger_Query(t *testing.T) {
	l := NewWriterLogger(&Config{Enabled: true}, &bytes.Buffer{})

	_, err := l.Query(context.Background(), &QueryFilter{})
	if !errors.Is(err, ErrQueryNotSupported) {
		t.Errorf("expected ErrQueryNotSupported, got %v", err)
	}
}

// TestFileLogger verifies that FileLogger writes entries to the journal file.
func TestFileLogger(t *testing.T) {
	l, path := newTestFileLogger(t)

	if err := l.Log(context.Background(), solveEntry("optimal", "eppstein", time.Now())); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Wait for flush
	time.Sleep(150 * time.Millisecond)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"enumerator":"eppstein"`)) {
		t.Errorf("expected journal to contain the entry, got %q", data)
	}

	if err := l.Close(); err != nil {
		t.Errorf("failed to close logger: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

// TestFileLogger_CloseFlushes verifies that entries still in the buffer are written on Close.
func TestFileLogger_CloseFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewFileLogger(&Config{Enabled: true, FilePath: path, FlushPeriod: time.Hour})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := l.Log(context.Background(), solveEntry("optimal", "yen", time.Now())); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := ReadFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("expected 10 entries, got %d", len(entries))
	}
}

// TestFileLogger_DefaultPath verifies that FileLogger uses a default path when none is provided.
func TestFileLogger_DefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := &Config{Enabled: true, Backend: "file"}

	l, err := NewFileLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer l.Close()

	if cfg.FilePath != "rcsp-audit.log" {
		t.Errorf("expected default path, got %s", cfg.FilePath)
	}
	if _, err := os.Stat("rcsp-audit.log"); err != nil {
		t.Errorf("expected journal file to exist: %v", err)
	}
}

// TestFileLogger_Query verifies filtering, ordering and paging of journal entries.
func TestFileLogger_Query(t *testing.T) {
	l, _ := newTestFileLogger(t)
	defer l.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	l.Log(ctx, solveEntry("optimal", "eppstein", base))
	l.Log(ctx, solveEntry("infeasible", "eppstein", base.Add(time.Minute)))
	l.Log(ctx, solveEntry("optimal", "yen", base.Add(2*time.Minute)))

	all, err := l.Query(ctx, &QueryFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Enumerator != "yen" {
		t.Errorf("expected newest first, got %s/%s", all[0].Status, all[0].Enumerator)
	}

	optimal, err := l.Query(ctx, &QueryFilter{Status: "optimal"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(optimal) != 2 {
		t.Errorf("expected 2 optimal entries, got %d", len(optimal))
	}

	page, err := l.Query(ctx, &QueryFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page) != 1 || page[0].Status != "infeasible" {
		t.Errorf("expected the middle entry, got %v", page)
	}

	empty, err := l.Query(ctx, &QueryFilter{Offset: 5})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no entries past the end, got %d", len(empty))
	}
}

// TestReadFile_Missing verifies that a missing journal reads as empty.
func TestReadFile_Missing(t *testing.T) {
	entries, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "none.log"), nil)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %v", entries)
	}
}

// TestReadFile_SkipsGarbage verifies that malformed lines are ignored.
func TestReadFile_SkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	content := "not json\n" + `{"id":"1","status":"optimal","timestamp":"2026-01-01T00:00:00Z"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Errorf("expected the single valid entry, got %v", entries)
	}
}

// TestNew verifies that the New function correctly instantiates different logger backends.
func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "disabled", cfg: &Config{Enabled: false}},
		{name: "stdout backend", cfg: &Config{Enabled: true, Backend: "stdout"}},
		{name: "unknown backend defaults to stdout", cfg: &Config{Enabled: true, Backend: "unknown"}},
		{name: "file backend", cfg: &Config{Enabled: true, Backend: "file", FilePath: filepath.Join(t.TempDir(), "a.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("expected logger to be non-nil")
			}
			l.Close()
		})
	}

	if l, _ := New(&Config{Enabled: false}); l == nil {
		t.Error("expected noop logger")
	} else if _, ok := l.(*NoopLogger); !ok {
		t.Errorf("expected *NoopLogger, got %T", l)
	}
}

// TestNoopLogger verifies that NoopLogger implements the Logger interface without side effects.
func TestNoopLogger(t *testing.T) {
	l := &NoopLogger{}

	if err := l.Log(context.Background(), &Entry{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	entries, err := l.Query(context.Background(), &QueryFilter{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Error("expected nil entries")
	}

	if err := l.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestGlobalLogger verifies setting and getting the global journal.
func TestGlobalLogger(t *testing.T) {
	original := Get()
	defer SetGlobal(original)

	newLogger := &NoopLogger{}
	SetGlobal(newLogger)

	if Get() != newLogger {
		t.Error("expected global logger to be updated")
	}

	if err := Log(context.Background(), NewEntry().Build()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
