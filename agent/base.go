package agent

// BaseAgent carries the identity and persona shared by all agent variants.
// Embed it and implement Think.
type BaseAgent struct {
	name    string
	persona string
}

// NewBaseAgent creates the shared identity/persona plumbing.
func NewBaseAgent(name, persona string) BaseAgent {
	return BaseAgent{name: name, persona: persona}
}

// Name returns the agent's unique name.
func (b BaseAgent) Name() string { return b.name }

// Persona returns the agent's standing instructions.
func (b BaseAgent) Persona() string { return b.persona }
