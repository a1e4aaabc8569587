package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SystemSpeaker is the reserved speaker name for entries the sandbox itself
// writes (e.g. the verb catalogue at tick 0). Agent names must not collide
// with it.
const SystemSpeaker = "SYSTEM"

// NewID returns a new unique identifier for messages and bred agents.
func NewID() string { return uuid.NewString() }

// Message is a single utterance produced by an agent during its turn.
// Name is the speaker's unique agent name; Content is free text that may
// embed WORLD: directives for the command executor.
type Message struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// NewMessage creates a Message with a fresh ID.
func NewMessage(name, content string) Message {
	return Message{ID: NewID(), Name: name, Content: content}
}

// LogEntry is one immutable chat-log record. Tick is the world tick at the
// time of the triggering event; it is written once per tick, plus a single
// SystemSpeaker entry at tick 0 describing the verb catalogue.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Tick    uint64    `json:"tick"`
	Speaker string    `json:"speaker"`
	Content string    `json:"content"`
}

// WorldEvent is a discrete, informational event yielded by command
// execution. Events are surfaced for observability only; they are never
// load-bearing for tick correctness.
type WorldEvent struct {
	Verb   string `json:"verb"`
	Actor  string `json:"actor"`
	Detail string `json:"detail"`
}

func (e WorldEvent) String() string {
	return fmt.Sprintf("%s %s %s", e.Actor, e.Verb, e.Detail)
}
