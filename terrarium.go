// Package terrarium provides a high-level façade over the scheduler and its
// collaborators, enabling quick construction of a complete sandbox. Most
// applications interact with this package by:
//  1. Creating a Sandbox via New() (optionally overriding defaults)
//  2. Running it with Run(ctx, ticks)
//
// The façade delegates orchestration to scheduler.Scheduler while keeping
// setup ergonomics concise. All defaults are safe for local development:
// in-memory agent memory, a mock model, a discard chat log.
package terrarium

import (
	"context"
	"fmt"

	"terrarium/agent"
	"terrarium/breeding"
	"terrarium/bus"
	"terrarium/config"
	"terrarium/logging"
	"terrarium/memory"
	"terrarium/model"
	"terrarium/scheduler"
	"terrarium/world"
)

// Options configures a Sandbox.
type Options struct {
	// Config supplies population cap, save cadence and agent specs.
	Config config.Config

	// Model decides what agents say; defaults to a mock model.
	Model model.Model

	// Memory is the durable agent memory; defaults to in-memory.
	Memory memory.Store

	// Sink receives chat-log entries; defaults to the scheduler's
	// discard sink.
	Sink scheduler.LogSink

	// Logger receives observability notices; defaults to NoOpLogger.
	Logger logging.Logger
}

// Sandbox aggregates the wired simulation.
type Sandbox struct {
	World     *world.State
	Bus       *bus.Bus
	Scheduler *scheduler.Scheduler
}

// New loads (or freshly initializes) the world and wires agents, breeding
// and the scheduler together.
func New(optFns ...func(o *Options)) (*Sandbox, error) {
	opts := Options{
		Model:  model.NewMockModel("mock"),
		Memory: memory.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}
	opts.Config = defaultConfig()
	for _, fn := range optFns {
		fn(&opts)
	}

	w, err := world.Load(opts.Config.SavePath)
	if err != nil {
		return nil, fmt.Errorf("terrarium: load world: %w", err)
	}
	b := bus.New()

	factory := func(name, persona string) scheduler.Agent {
		return agent.NewModelAgent(name, persona, opts.Model, func(o *agent.ModelOptions) {
			o.Memory = opts.Memory
			o.Bus = b
		})
	}

	agents := make([]scheduler.Agent, 0, len(opts.Config.Agents))
	for _, spec := range opts.Config.Agents {
		agents = append(agents, factory(spec.Name, spec.Persona))
	}

	breeder := breeding.New(w, b, factory, func(o *breeding.Options) {
		o.Logger = opts.Logger
	})

	schedOpts := []func(o *scheduler.Options){
		scheduler.WithConfig(scheduler.Config{
			MaxAgents:   opts.Config.MaxAgents,
			SaveEvery:   opts.Config.SaveEvery,
			SavePath:    opts.Config.SavePath,
			HistorySize: opts.Config.HistorySize,
		}),
		scheduler.WithBreeder(breeder),
		scheduler.WithLogger(opts.Logger),
	}
	if opts.Sink != nil {
		schedOpts = append(schedOpts, scheduler.WithSink(opts.Sink))
	}

	sched, err := scheduler.New(w, agents, b, schedOpts...)
	if err != nil {
		return nil, err
	}
	return &Sandbox{World: w, Bus: b, Scheduler: sched}, nil
}

// Run drives the tick loop; ticks <= 0 means run until ctx is cancelled.
func (s *Sandbox) Run(ctx context.Context, ticks int) error {
	return s.Scheduler.Loop(ctx, ticks)
}

func defaultConfig() config.Config {
	cfg, _ := config.Load("")
	return cfg
}
