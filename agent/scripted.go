package agent

import (
	"context"
	"fmt"

	"terrarium/core"
	"terrarium/history"
	"terrarium/world"
)

// ScriptedAgent replays a fixed script, cycling when it runs out. It never
// suspends, which makes scheduler behavior fully deterministic in tests and
// offline runs.
type ScriptedAgent struct {
	BaseAgent
	lines []string
	next  int
}

// NewScriptedAgent creates an agent that speaks the given lines in order.
func NewScriptedAgent(name string, lines ...string) *ScriptedAgent {
	return &ScriptedAgent{BaseAgent: NewBaseAgent(name, ""), lines: lines}
}

// Think returns the next scripted line.
func (a *ScriptedAgent) Think(ctx context.Context, w *world.State, _ *history.Window) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}
	if len(a.lines) == 0 {
		return core.NewMessage(a.Name(), fmt.Sprintf("%s has nothing to say at tick %d", a.Name(), w.Tick)), nil
	}
	line := a.lines[a.next%len(a.lines)]
	a.next++
	return core.NewMessage(a.Name(), line), nil
}
