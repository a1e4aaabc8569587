package memory

import "context"

// Entry is one remembered item belonging to an agent.
type Entry struct {
	ID      int64  `json:"id"`
	Owner   string `json:"owner"`
	Content string `json:"content"`
	Tick    uint64 `json:"tick"`
}

// Store is the durable memory contract consumed by agents.
type Store interface {
	// Store appends a memory for owner at the given tick.
	Store(ctx context.Context, owner, content string, tick uint64) error

	// Recall returns up to limit of owner's most recent memories,
	// newest first.
	Recall(ctx context.Context, owner string, limit int) ([]Entry, error)

	// Close releases underlying resources.
	Close() error
}
