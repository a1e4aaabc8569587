package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrarium/config"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxAgents)
	assert.Equal(t, 10, cfg.SaveEvery)
	assert.Equal(t, "world.json", cfg.SavePath)
	assert.Equal(t, "mock", cfg.Model.Provider)
	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "Eve", cfg.Agents[0].Name)
	assert.Equal(t, "Adam", cfg.Agents[1].Name)
}

func TestLoad_SparseFileOverlaysDefaults(t *testing.T) {
	cfg, err := config.Load(write(t, "max_agents: 4\nsave_every: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxAgents)
	assert.Equal(t, 3, cfg.SaveEvery)
	assert.Equal(t, "world.json", cfg.SavePath)
	assert.Len(t, cfg.Agents, 2)
}

func TestLoad_FullFile(t *testing.T) {
	cfg, err := config.Load(write(t, `
max_agents: 6
save_every: 5
save_path: state/world.json
listen: 127.0.0.1:8080
log:
  path: logs/chat.jsonl
  compress: true
model:
  provider: anthropic
  name: claude-sonnet-4-20250514
agents:
  - name: Ada
    persona: You are Ada.
  - name: Linus
    persona: You are Linus.
`))
	require.NoError(t, err)

	assert.Equal(t, "state/world.json", cfg.SavePath)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "logs/chat.jsonl.zst", cfg.Log.Path)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "Ada", cfg.Agents[0].Name)
}

func TestNormalize_AppendsZstSuffixOnce(t *testing.T) {
	cfg, err := config.Load(write(t, "log:\n  path: chat.jsonl.zst\n  compress: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "chat.jsonl.zst", cfg.Log.Path)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"too few agents allowed": "max_agents: 1\n",
		"zero save cadence":      "save_every: 0\n",
		"unknown provider":       "model:\n  provider: cohere\n",
		"duplicate agent names":  "agents:\n  - name: Eve\n  - name: Eve\n",
		"empty agent name":       "agents:\n  - name: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(write(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
