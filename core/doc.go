// Package core defines the shared data types exchanged between the
// scheduler and its collaborators: agent messages, chat-log entries and
// world events. It deliberately contains no behavior beyond constructors
// so every other package can depend on it without cycles.
package core
