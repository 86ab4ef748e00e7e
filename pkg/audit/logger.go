// This file implements the journal backends: a rotating file, a plain
// writer (stdout) and a no-operation logger.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"rcsp/pkg/logger"
)

// ErrQueryNotSupported is returned by backends that cannot read entries back.
var ErrQueryNotSupported = errors.New("query not supported by this audit backend")

// WriterLogger writes journal entries as JSON lines to an io.Writer.
type WriterLogger struct {
	config *Config
	w      io.Writer
	mu     sync.Mutex
}

// NewWriterLogger creates a WriterLogger. A nil writer selects stdout.
func NewWriterLogger(cfg *Config, w io.Writer) *WriterLogger {
	if w == nil {
		w = os.Stdout
	}
	return &WriterLogger{config: cfg, w: w}
}

// Log marshals an entry to JSON and writes it with an [AUDIT] prefix.
// If the journal is disabled in the config, it does nothing.
func (l *WriterLogger) Log(_ context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.w, "[AUDIT]", string(data))
	return err
}

// Query is not supported by WriterLogger.
func (l *WriterLogger) Query(_ context.Context, _ *QueryFilter) ([]*Entry, error) {
	return nil, ErrQueryNotSupported
}

// Close for WriterLogger does nothing.
func (l *WriterLogger) Close() error {
	return nil
}

// FileLogger appends journal entries to a file rotated by lumberjack.
// Entries pass through a buffered channel and are written by a background
// goroutine that also flushes periodically.
type FileLogger struct {
	config *Config
	sink   *lumberjack.Logger
	writer *bufio.Writer
	mu     sync.Mutex
	buffer chan *Entry
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewFileLogger opens the journal (or "rcsp-audit.log" if no path is set)
// and starts the background writer.
func NewFileLogger(cfg *Config) (*FileLogger, error) {
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultConfig().FilePath
	}
	if dir := filepath.Dir(cfg.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}

	// Fail early on an unwritable path; lumberjack would only fail on first write.
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	f.Close()

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	l := &FileLogger{
		config: cfg,
		sink:   sink,
		writer: bufio.NewWriter(sink),
		buffer: make(chan *Entry, bufferSize),
		done:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.processLoop()

	return l, nil
}

// Log queues an entry. If the buffer is full the entry is written synchronously.
func (l *FileLogger) Log(_ context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	select {
	case l.buffer <- entry:
		return nil
	default:
		return l.writeEntry(entry)
	}
}

// Query reads the current journal file and returns matching entries newest
// first. Pending entries are flushed before reading. Rotated files are not read.
func (l *FileLogger) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	l.drain()
	l.flush()
	return ReadFile(ctx, l.config.FilePath, filter)
}

// Close stops the background writer, writes what is still buffered and
// closes the file. Calling Close twice is safe.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()

	l.drain()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush audit writer", "error", err)
	}
	return l.sink.Close()
}

func (l *FileLogger) processLoop() {
	defer l.wg.Done()

	flushPeriod := l.config.FlushPeriod
	if flushPeriod <= 0 {
		flushPeriod = 5 * time.Second
	}

	ticker := time.NewTicker(flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case entry := <-l.buffer:
			if err := l.writeEntry(entry); err != nil {
				logger.Log.Warn("Failed to write audit entry", "error", err)
			}
		case <-ticker.C:
			l.flush()
		}
	}
}

// drain writes every entry currently in the buffer.
func (l *FileLogger) drain() {
	for {
		select {
		case entry := <-l.buffer:
			if err := l.writeEntry(entry); err != nil {
				logger.Log.Warn("Failed to write audit entry", "error", err)
			}
		default:
			return
		}
	}
}

func (l *FileLogger) writeEntry(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.writer.Write(append(data, '\n'))
	return err
}

func (l *FileLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush audit writer", "error", err)
	}
}

// ReadFile parses a journal file and returns matching entries newest first.
// Lines that are not valid entries are skipped.
func ReadFile(ctx context.Context, path string, filter *QueryFilter) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if filter.Match(&e) {
			entries = append(entries, &e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(entries) {
				return nil, nil
			}
			entries = entries[filter.Offset:]
		}
		if filter.Limit > 0 && len(entries) > filter.Limit {
			entries = entries[:filter.Limit]
		}
	}
	return entries, nil
}

// New returns a Logger for the configuration. A disabled journal yields a
// NoopLogger; an unknown backend falls back to stdout.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if !cfg.Enabled {
		return &NoopLogger{}, nil
	}

	switch cfg.Backend {
	case "file", "":
		return NewFileLogger(cfg)
	case "stdout":
		return NewWriterLogger(cfg, os.Stdout), nil
	default:
		logger.Log.Warn("Unknown audit backend, using stdout", "backend", cfg.Backend)
		return NewWriterLogger(cfg, os.Stdout), nil
	}
}

// NoopLogger discards every entry.
type NoopLogger struct{}

// Log for NoopLogger does nothing.
func (l *NoopLogger) Log(_ context.Context, _ *Entry) error { return nil }

// Query for NoopLogger returns no entries.
func (l *NoopLogger) Query(_ context.Context, _ *QueryFilter) ([]*Entry, error) {
	return nil, nil
}

// Close for NoopLogger does nothing.
func (l *NoopLogger) Close() error { return nil }

// globalLogger is the package-level default journal, initialized as a NoopLogger.
var globalLogger Logger = &NoopLogger{}

var globalMu sync.RWMutex

// SetGlobal sets the global journal.
func SetGlobal(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Get returns the current global journal.
func Get() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Log records an entry using the global journal.
func Log(ctx context.Context, entry *Entry) error {
	return Get().Log(ctx, entry)
}
