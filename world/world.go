// Package world holds the shared simulation state: the tick counter, the
// agent-presence registry and everything agents have created or declared.
// It owns the snapshot layout; the scheduler only decides when to save.
package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Entity is something an agent brought into existence with CREATE.
type Entity struct {
	Kind    string `json:"kind"`
	Creator string `json:"creator"`
	Tick    uint64 `json:"tick"`
}

// State is the mutable world snapshot. The scheduler's tick body is the
// single writer; nothing else may mutate it while a tick is in progress.
type State struct {
	Tick     uint64                       `json:"tick"`
	Agents   map[string]map[string]string `json:"agents"`
	Entities []Entity                     `json:"entities,omitempty"`
	Facts    map[string]string            `json:"facts,omitempty"`
}

// New returns a freshly initialized world at tick 0.
func New() *State {
	return &State{
		Agents: make(map[string]map[string]string),
		Facts:  make(map[string]string),
	}
}

// Load reads a world snapshot from path. A missing file yields a fresh
// world; a present but invalid file is an error (never silently reset).
func Load(path string) (*State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read world snapshot: %w", err)
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse world snapshot %s: %w", path, err)
	}
	if err := snapshotSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid world snapshot %s: %w", path, err)
	}
	s := New()
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode world snapshot %s: %w", path, err)
	}
	if s.Agents == nil {
		s.Agents = make(map[string]map[string]string)
	}
	if s.Facts == nil {
		s.Facts = make(map[string]string)
	}
	return s, nil
}

// Save writes the snapshot to path atomically (tmp + rename) so a crash
// mid-write never leaves a torn file behind.
func (s *State) Save(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode world snapshot: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write world snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit world snapshot: %w", err)
	}
	return nil
}

// EnsureAgent upserts an empty registry record for name. Idempotent:
// existing attributes are never touched. Guarantees every agent that has
// acted is persisted even if it issued no world directive.
func (s *State) EnsureAgent(name string) {
	if _, ok := s.Agents[name]; !ok {
		s.Agents[name] = make(map[string]string)
	}
}

// SetAttr sets a single attribute on an agent's registry record, creating
// the record if absent.
func (s *State) SetAttr(name, key, value string) {
	s.EnsureAgent(name)
	s.Agents[name][key] = value
}

// Attr reads an agent attribute; ok is false when the agent or key is
// unknown.
func (s *State) Attr(name, key string) (string, bool) {
	rec, ok := s.Agents[name]
	if !ok {
		return "", false
	}
	v, ok := rec[key]
	return v, ok
}

// AddEntity records a created entity.
func (s *State) AddEntity(kind, creator string) {
	s.Entities = append(s.Entities, Entity{Kind: kind, Creator: creator, Tick: s.Tick})
}

// SetFact sets a world-level key/value fact.
func (s *State) SetFact(key, value string) { s.Facts[key] = value }
