// Package chatlog implements the append-only chat-log sink: one JSONL line
// per entry, optionally zstd-compressed, with an explicit close/flush
// lifecycle. Opened at scheduler construction, closed exactly once at loop
// termination.
package chatlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"terrarium/core"
)

// Options configures a Manager.
type Options struct {
	// Zstd enables stream compression; the file should then carry a
	// .jsonl.zst suffix by convention.
	Zstd bool
}

// WithZstd enables zstd compression.
func WithZstd() func(o *Options) {
	return func(o *Options) { o.Zstd = true }
}

// Manager writes chat-log entries to a single append-only file.
type Manager struct {
	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	closed bool
}

// Open creates (or appends to) the log file at path.
func Open(path string, optFns ...func(o *Options)) (*Manager, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("chatlog: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("chatlog: open %s: %w", path, err)
	}

	m := &Manager{f: f}
	if opts.Zstd {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("chatlog: zstd writer: %w", err)
		}
		m.enc = enc
		m.w = bufio.NewWriter(enc)
	} else {
		m.w = bufio.NewWriter(f)
	}
	return m, nil
}

// Write appends one entry as a JSON line and flushes it.
func (m *Manager) Write(e core.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("chatlog: write after close")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("chatlog: marshal entry: %w", err)
	}
	if _, err := m.w.Write(b); err != nil {
		return fmt.Errorf("chatlog: write entry: %w", err)
	}
	if err := m.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("chatlog: write entry: %w", err)
	}
	return m.w.Flush()
}

// Close flushes and closes the underlying file. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.w.Flush(); err != nil {
		return fmt.Errorf("chatlog: flush: %w", err)
	}
	if m.enc != nil {
		if err := m.enc.Close(); err != nil {
			return fmt.Errorf("chatlog: close encoder: %w", err)
		}
	}
	if err := m.f.Close(); err != nil {
		return fmt.Errorf("chatlog: close file: %w", err)
	}
	return nil
}
