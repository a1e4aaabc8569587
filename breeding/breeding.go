// Package breeding turns BREED WITH proposals published on the bus into new
// agents. The manager is observed once per tick by the scheduler; it never
// mutates the population itself, it hands newborn agents back for the
// scheduler to append.
package breeding

import (
	"context"
	"fmt"
	"strings"

	"terrarium/bus"
	"terrarium/core"
	"terrarium/logging"
	"terrarium/scheduler"
	"terrarium/world"
)

// Factory builds a newborn agent from its assigned name and persona.
type Factory func(name, persona string) scheduler.Agent

// Options configures a Manager.
type Options struct {
	// MaxPerStep bounds how many proposals are honored in a single tick.
	MaxPerStep int

	// QueueSize is the bus subscription buffer; excess proposals are
	// dropped by the bus rather than stalling publishers.
	QueueSize int

	// Logger receives breeding notices.
	Logger logging.Logger
}

// Manager drains breed proposals and produces child agents.
type Manager struct {
	world   *world.State
	sub     <-chan bus.Envelope
	factory Factory
	log     logging.Logger
	max     int
}

var _ scheduler.Breeder = (*Manager)(nil)

// New subscribes to breed proposals on b. The factory decides what kind of
// agent a child becomes (model-backed in production, scripted in tests).
func New(w *world.State, b *bus.Bus, factory Factory, optFns ...func(o *Options)) *Manager {
	opts := Options{MaxPerStep: 1, QueueSize: 32, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		world:   w,
		sub:     b.Subscribe(bus.TopicBreed, opts.QueueSize),
		factory: factory,
		log:     opts.Logger,
		max:     opts.MaxPerStep,
	}
}

// Step drains pending proposals (up to MaxPerStep) and returns the newborn
// agents. A proposal whose partner is unknown to the world registry is
// discarded with a notice.
func (m *Manager) Step(ctx context.Context) ([]scheduler.Agent, error) {
	var born []scheduler.Agent
	for len(born) < m.max {
		select {
		case <-ctx.Done():
			return born, ctx.Err()
		case env, ok := <-m.sub:
			if !ok {
				return born, nil
			}
			child, err := m.conceive(env.Message)
			if err != nil {
				m.log.Info("breed proposal rejected", "initiator", env.Message.Name, "reason", err)
				continue
			}
			born = append(born, child)
		default:
			return born, nil
		}
	}
	return born, nil
}

func (m *Manager) conceive(proposal core.Message) (scheduler.Agent, error) {
	initiator := proposal.Name
	partner := strings.TrimSpace(proposal.Content)
	if partner == "" || partner == initiator {
		return nil, fmt.Errorf("invalid partner %q", partner)
	}
	if _, ok := m.world.Agents[partner]; !ok {
		return nil, fmt.Errorf("unknown partner %q", partner)
	}

	name := childName(initiator, partner)
	persona := fmt.Sprintf(
		"You are %s, child of %s and %s. You inherit their world and their "+
			"unfinished work. Explore, cooperate, and act through WORLD: directives.",
		name, initiator, partner)

	child := m.factory(name, persona)
	m.world.EnsureAgent(name)
	m.world.SetAttr(name, "parents", initiator+"+"+partner)
	m.log.Info("agent bred", "name", name, "parents", initiator+"+"+partner)
	return child, nil
}

func childName(initiator, partner string) string {
	return fmt.Sprintf("%s-%s-%s", initiator, partner, core.NewID()[:8])
}
