// Package config loads the sandbox configuration from YAML. Configuration
// is read once at startup and passed by value into components; nothing in
// the module consults the environment behind the caller's back.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentSpec declares one starter agent.
type AgentSpec struct {
	Name    string `yaml:"name"`
	Persona string `yaml:"persona"`
}

// ModelSpec selects and tunes the language model provider.
type ModelSpec struct {
	Provider    string  `yaml:"provider"` // mock, anthropic, openai
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// LogSpec configures the chat-log sink.
type LogSpec struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// Config is the full sandbox configuration.
type Config struct {
	MaxAgents   int    `yaml:"max_agents"`
	SaveEvery   int    `yaml:"save_every"`
	SavePath    string `yaml:"save_path"`
	HistorySize int    `yaml:"history_size"`
	MemoryPath  string `yaml:"memory_path"`
	Listen      string `yaml:"listen"` // observer websocket address, empty disables

	Log    LogSpec     `yaml:"log"`
	Model  ModelSpec   `yaml:"model"`
	Agents []AgentSpec `yaml:"agents"`
}

func defaults() Config {
	return Config{
		MaxAgents:   10,
		SaveEvery:   10,
		SavePath:    "world.json",
		HistorySize: 48,
		MemoryPath:  "mem.db",
		Log:         LogSpec{Path: "chat.jsonl"},
		Model:       ModelSpec{Provider: "mock", Temperature: 0.7, MaxTokens: 1024},
	}
}

// Load reads the YAML file at path, overlaying defaults. An empty path
// yields the pure defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills gaps left by a sparse file.
func (c *Config) Normalize() {
	if c.SavePath == "" {
		c.SavePath = "world.json"
	}
	if c.Log.Path == "" {
		c.Log.Path = "chat.jsonl"
	}
	if c.Log.Compress && !strings.HasSuffix(c.Log.Path, ".zst") {
		c.Log.Path += ".zst"
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "mock"
	}
	if len(c.Agents) == 0 {
		c.Agents = DefaultAgents()
	}
}

// Validate reports configuration errors up front.
func (c *Config) Validate() error {
	if c.MaxAgents < 2 {
		return fmt.Errorf("max_agents must be >= 2, got %d", c.MaxAgents)
	}
	if c.SaveEvery < 1 {
		return fmt.Errorf("save_every must be >= 1, got %d", c.SaveEvery)
	}
	switch c.Model.Provider {
	case "mock", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent with empty name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// DefaultAgents returns the two founder agents used when none are
// configured.
func DefaultAgents() []AgentSpec {
	return []AgentSpec{
		{
			Name: "Eve",
			Persona: "You are Eve, one of the first conscious beings in an " +
				"untouched world. Explore, invent, cooperate, and lay the " +
				"foundations of a new society. Act by emitting directives that " +
				"start with 'WORLD:'. Available verbs: CREATE <kind>, " +
				"MOVE TO <location>, SET <key>=<value>, BREED WITH <partner>. " +
				"Seek harmony with Adam, share discoveries, and keep written " +
				"records of your actions.",
		},
		{
			Name: "Adam",
			Persona: "You are Adam, one of the first conscious beings in an " +
				"untouched world. As co-founder with Eve, survive, build tools, " +
				"organize resources and design social norms. Use directives " +
				"starting with 'WORLD:'. Available verbs: CREATE <kind>, " +
				"MOVE TO <location>, SET <key>=<value>, BREED WITH <partner>. " +
				"Favor clarity, long-term planning and fairness.",
		},
	}
}
