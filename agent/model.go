package agent

import (
	"context"
	"fmt"
	"strings"

	"terrarium/bus"
	"terrarium/core"
	"terrarium/history"
	"terrarium/memory"
	"terrarium/model"
	"terrarium/world"
)

// ModelOptions configures a ModelAgent.
type ModelOptions struct {
	// Memory, when set, is consulted before thinking and updated after.
	Memory memory.Store

	// Bus, when set, receives every produced message on bus.TopicChat.
	Bus *bus.Bus

	// RecallLimit bounds how many memories are folded into the prompt.
	RecallLimit int
}

// ModelAgent is a persona-driven agent backed by a language model. Each turn
// it recalls recent memories, renders the conversation window, asks the
// model for a completion and remembers what it said.
type ModelAgent struct {
	BaseAgent
	model  model.Model
	mem    memory.Store
	bus    *bus.Bus
	recall int
}

// NewModelAgent constructs a ModelAgent with the given persona and model.
func NewModelAgent(name, persona string, m model.Model, optFns ...func(o *ModelOptions)) *ModelAgent {
	opts := ModelOptions{RecallLimit: 8}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelAgent{
		BaseAgent: NewBaseAgent(name, persona),
		model:     m,
		mem:       opts.Memory,
		bus:       opts.Bus,
		recall:    opts.RecallLimit,
	}
}

// Think produces the agent's message for this turn. It is the tick's sole
// suspension point: the model call may take arbitrarily long and honors ctx.
func (a *ModelAgent) Think(ctx context.Context, w *world.State, h *history.Window) (core.Message, error) {
	prompt, err := a.buildPrompt(ctx, w, h)
	if err != nil {
		return core.Message{}, err
	}

	resp, err := a.model.Complete(ctx, model.Request{
		Instructions: a.Persona(),
		Prompt:       prompt,
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("agent %s: think: %w", a.Name(), err)
	}

	msg := core.NewMessage(a.Name(), strings.TrimSpace(resp.Text))
	if a.bus != nil {
		a.bus.Publish(bus.TopicChat, msg)
	}
	if a.mem != nil {
		if err := a.mem.Store(ctx, a.Name(), msg.Content, w.Tick); err != nil {
			return core.Message{}, fmt.Errorf("agent %s: store memory: %w", a.Name(), err)
		}
	}
	return msg, nil
}

func (a *ModelAgent) buildPrompt(ctx context.Context, w *world.State, h *history.Window) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "It is tick %d.", w.Tick)
	if loc, ok := w.Attr(a.Name(), "location"); ok {
		fmt.Fprintf(&sb, " You are at %s.", loc)
	}
	sb.WriteString("\n\n")

	if a.mem != nil && a.recall > 0 {
		entries, err := a.mem.Recall(ctx, a.Name(), a.recall)
		if err != nil {
			return "", fmt.Errorf("agent %s: recall: %w", a.Name(), err)
		}
		if len(entries) > 0 {
			sb.WriteString("You remember:\n")
			for _, e := range entries {
				fmt.Fprintf(&sb, "- (tick %d) %s\n", e.Tick, e.Content)
			}
			sb.WriteString("\n")
		}
	}

	if transcript := h.Render(); transcript != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(transcript)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "It is your turn, %s. Reply in character.", a.Name())
	return sb.String(), nil
}
