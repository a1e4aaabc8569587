// Package testutil contains helper doubles used across tests to reduce
// boilerplate when exercising the scheduler: recording agents, capturing
// log sinks and stub breeders. These helpers are intentionally minimal and
// avoid adding third-party dependencies. They are not intended for
// production usage.
package testutil

import (
	"context"
	"sync"

	"terrarium/core"
	"terrarium/history"
	"terrarium/scheduler"
	"terrarium/world"
)

// StubAgent records every Think call and answers with a fixed line.
type StubAgent struct {
	name string
	line string

	mu    sync.Mutex
	calls int
	err   error
}

// NewStubAgent creates an agent always answering with line.
func NewStubAgent(name, line string) *StubAgent {
	return &StubAgent{name: name, line: line}
}

// FailWith makes every subsequent Think call return err.
func (a *StubAgent) FailWith(err error) { a.mu.Lock(); a.err = err; a.mu.Unlock() }

// Name implements scheduler.Agent.
func (a *StubAgent) Name() string { return a.name }

// Think implements scheduler.Agent.
func (a *StubAgent) Think(_ context.Context, _ *world.State, _ *history.Window) (core.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return core.Message{}, a.err
	}
	return core.NewMessage(a.name, a.line), nil
}

// Calls reports how many times the agent was selected.
func (a *StubAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// CaptureSink collects written log entries and counts Close calls.
type CaptureSink struct {
	mu      sync.Mutex
	Entries []core.LogEntry
	Closes  int
}

// Write implements scheduler.LogSink.
func (s *CaptureSink) Write(e core.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, e)
	return nil
}

// Close implements scheduler.LogSink.
func (s *CaptureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closes++
	return nil
}

// Speakers returns the speaker of every captured entry in order.
func (s *CaptureSink) Speakers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Speaker
	}
	return out
}

// QueueBreeder hands out pre-seeded agents, one batch per Step call.
type QueueBreeder struct {
	Batches [][]scheduler.Agent
	step    int
}

// Step implements scheduler.Breeder.
func (b *QueueBreeder) Step(context.Context) ([]scheduler.Agent, error) {
	if b.step >= len(b.Batches) {
		return nil, nil
	}
	batch := b.Batches[b.step]
	b.step++
	return batch, nil
}
