// Package logging provides a minimal logging interface and adapters for the
// terrarium sandbox.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the scheduler and its collaborators use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - SandboxLogger with sandbox-specific contextual helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json")
//	sched, err := scheduler.New(w, agents, b, scheduler.WithLogger(logger))
//
// The design intentionally keeps the interface minimal so any structured
// logger can be plugged in.
package logging
