// Package history maintains the rolling conversation window visible to
// agents: append per tick, periodic compaction ("rollup") folding the
// oldest messages into a bounded digest.
package history

import (
	"fmt"
	"strings"
	"sync"

	"terrarium/core"
)

const (
	// DefaultCapacity is the number of verbatim messages kept before a
	// rollup compacts the oldest half.
	DefaultCapacity = 48

	// maxDigestRunes bounds the rolled-up digest; oldest digest lines are
	// discarded first.
	maxDigestRunes = 4096

	// digestLineRunes truncates each compacted message inside the digest.
	digestLineRunes = 120
)

// Window is the context manager. A mutex guards it because agents may read
// Render concurrently with observability consumers, but all mutation comes
// from the scheduler's tick body.
type Window struct {
	mu          sync.Mutex
	capacity    int
	msgs        []core.Message
	digest      []string
	compactions int
}

// New creates a Window keeping up to capacity verbatim messages
// (DefaultCapacity when capacity <= 0).
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{capacity: capacity}
}

// Add appends a message to the window.
func (w *Window) Add(m core.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, m)
}

// Rollup compacts the window when it exceeds capacity: the oldest half is
// condensed into the digest, the newest half stays verbatim.
func (w *Window) Rollup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) <= w.capacity {
		return nil
	}
	cut := len(w.msgs) / 2
	for _, m := range w.msgs[:cut] {
		w.digest = append(w.digest, digestLine(m))
	}
	w.msgs = append(w.msgs[:0:0], w.msgs[cut:]...)
	w.compactions++
	w.trimDigestLocked()
	return nil
}

func (w *Window) trimDigestLocked() {
	total := 0
	for _, line := range w.digest {
		total += len(line)
	}
	for total > maxDigestRunes && len(w.digest) > 0 {
		total -= len(w.digest[0])
		w.digest = w.digest[1:]
	}
}

func digestLine(m core.Message) string {
	content := strings.TrimSpace(m.Content)
	if r := []rune(content); len(r) > digestLineRunes {
		content = string(r[:digestLineRunes]) + "…"
	}
	return fmt.Sprintf("%s: %s", m.Name, content)
}

// Render returns the window as prompt text: the digest of compacted history
// followed by the verbatim tail, oldest first.
func (w *Window) Render() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var sb strings.Builder
	if len(w.digest) > 0 {
		sb.WriteString("[earlier, condensed]\n")
		for _, line := range w.digest {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	for _, m := range w.msgs {
		sb.WriteString(m.Name)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Len reports the number of verbatim messages currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

// Compactions reports how many rollups have condensed history so far.
func (w *Window) Compactions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.compactions
}
