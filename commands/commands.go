// Package commands interprets WORLD: directives embedded in agent messages
// and applies them to the shared world. Execution is a pure function of
// (world, bus, actor, content); each applied directive yields one discrete
// event for observability.
package commands

import (
	"fmt"
	"strings"

	"terrarium/bus"
	"terrarium/core"
	"terrarium/world"
)

// Catalogue is the fixed human-readable description of the supported world
// directives, written to the chat log exactly once on a freshly
// initialized world.
const Catalogue = "Verb Catalogue: Available commands are WORLD: CREATE <kind>, " +
	"MOVE TO <location>, SET <key>=<value>, BREED WITH <partner>"

// directivePrefix marks an actionable line inside agent content.
const directivePrefix = "WORLD:"

// Executor parses and applies world directives.
type Executor struct{}

// New returns a ready Executor.
func New() *Executor { return &Executor{} }

// Execute scans content for WORLD: directives issued by actor and applies
// each against w, publishing breed proposals on b. Unrecognized verbs are
// surfaced as REJECT events rather than errors: agent text is untrusted
// input, not a programming fault.
func (e *Executor) Execute(w *world.State, b *bus.Bus, actor, content string) ([]core.WorldEvent, error) {
	if w == nil {
		return nil, fmt.Errorf("commands: nil world")
	}
	var events []core.WorldEvent
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, directivePrefix)
		if idx < 0 {
			continue
		}
		directive := strings.TrimSpace(line[idx+len(directivePrefix):])
		if directive == "" {
			continue
		}
		events = append(events, apply(w, b, actor, directive))
	}
	return events, nil
}

func apply(w *world.State, b *bus.Bus, actor, directive string) core.WorldEvent {
	verb, rest := splitVerb(directive)
	switch verb {
	case "CREATE":
		if rest == "" {
			return reject(actor, directive)
		}
		w.AddEntity(rest, actor)
		w.EnsureAgent(actor)
		return core.WorldEvent{Verb: "CREATE", Actor: actor, Detail: rest}

	case "MOVE":
		loc, ok := strings.CutPrefix(rest, "TO ")
		loc = strings.TrimSpace(loc)
		if !ok || loc == "" {
			return reject(actor, directive)
		}
		w.SetAttr(actor, "location", loc)
		return core.WorldEvent{Verb: "MOVE TO", Actor: actor, Detail: loc}

	case "SET":
		key, value, ok := strings.Cut(rest, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" {
			return reject(actor, directive)
		}
		w.SetFact(key, value)
		return core.WorldEvent{Verb: "SET", Actor: actor, Detail: key + "=" + value}

	case "BREED":
		partner, ok := strings.CutPrefix(rest, "WITH ")
		partner = strings.TrimSpace(partner)
		if !ok || partner == "" {
			return reject(actor, directive)
		}
		if b != nil {
			b.Publish(bus.TopicBreed, core.NewMessage(actor, partner))
		}
		return core.WorldEvent{Verb: "BREED WITH", Actor: actor, Detail: partner}

	default:
		return reject(actor, directive)
	}
}

func splitVerb(directive string) (verb, rest string) {
	verb, rest, _ = strings.Cut(directive, " ")
	return strings.ToUpper(verb), strings.TrimSpace(rest)
}

func reject(actor, directive string) core.WorldEvent {
	return core.WorldEvent{Verb: "REJECT", Actor: actor, Detail: directive}
}
