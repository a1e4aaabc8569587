package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"terrarium/bus"
	"terrarium/commands"
	"terrarium/core"
	"terrarium/history"
	"terrarium/logging"
	"terrarium/world"
)

// ErrNoAgents is returned when the agent sequence is empty at selection
// time. An empty population is an invariant violation, not a stall.
var ErrNoAgents = errors.New("scheduler: agent sequence is empty")

// Agent is the sole capability the scheduler requires of an agent: produce
// a directed message given world and context. Think may suspend arbitrarily
// long; it is the tick's only suspension point.
type Agent interface {
	Name() string
	Think(ctx context.Context, w *world.State, h *history.Window) (core.Message, error)
}

// Executor interprets an agent's emitted directives against the world,
// returning a sequence of discrete events.
type Executor interface {
	Execute(w *world.State, b *bus.Bus, actor, content string) ([]core.WorldEvent, error)
}

// Breeder is observed once per tick and may produce new agents. The
// scheduler appends them itself, staying the sole mutator of the sequence.
type Breeder interface {
	Step(ctx context.Context) ([]Agent, error)
}

// LogSink is the append-only chat-log contract with an explicit close/flush
// lifecycle.
type LogSink interface {
	Write(e core.LogEntry) error
	Close() error
}

// Config holds the scheduler's tuning knobs. It is read once at
// construction; there are no hidden environment lookups.
type Config struct {
	// MaxAgents is the population cap enforced at the end of every tick.
	MaxAgents int

	// SaveEvery is the tick interval between world snapshots.
	SaveEvery int

	// SavePath is where snapshots are written.
	SavePath string

	// HistorySize caps the verbatim conversation window.
	HistorySize int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MaxAgents:   10,
		SaveEvery:   10,
		SavePath:    "world.json",
		HistorySize: history.DefaultCapacity,
	}
}

// Validate reports configuration errors up front.
func (c Config) Validate() error {
	if c.MaxAgents < 2 {
		return fmt.Errorf("scheduler: MaxAgents must be >= 2, got %d", c.MaxAgents)
	}
	if c.SaveEvery < 1 {
		return fmt.Errorf("scheduler: SaveEvery must be >= 1, got %d", c.SaveEvery)
	}
	if c.SavePath == "" {
		return errors.New("scheduler: SavePath must not be empty")
	}
	return nil
}

// Options configures a Scheduler via functional options.
type Options struct {
	// Config holds the tuning knobs; defaults to DefaultConfig().
	Config Config

	// Executor interprets world directives; defaults to commands.New().
	Executor Executor

	// Breeder may add agents each tick; defaults to a no-op.
	Breeder Breeder

	// Sink receives chat-log entries; defaults to a discard sink.
	Sink LogSink

	// Logger receives observability notices; defaults to NoOpLogger.
	Logger logging.Logger

	// Now supplies timestamps; defaults to time.Now. Override in tests.
	Now func() time.Time
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithExecutor replaces the default command executor.
func WithExecutor(e Executor) func(o *Options) {
	return func(o *Options) { o.Executor = e }
}

// WithBreeder installs a breeding manager.
func WithBreeder(b Breeder) func(o *Options) {
	return func(o *Options) { o.Breeder = b }
}

// WithSink installs the chat-log sink.
func WithSink(s LogSink) func(o *Options) {
	return func(o *Options) { o.Sink = s }
}

// WithLogger installs the observability logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// noopBreeder is the default Breeder: never breeds.
type noopBreeder struct{}

func (noopBreeder) Step(context.Context) ([]Agent, error) { return nil, nil }

// discardSink is the default LogSink: accepts and drops everything.
type discardSink struct{}

func (discardSink) Write(core.LogEntry) error { return nil }
func (discardSink) Close() error              { return nil }

// Scheduler composes the world, the agent population and the pluggable
// collaborators into a strictly sequential tick loop.
type Scheduler struct {
	cfg     Config
	world   *world.State
	agents  []Agent
	bus     *bus.Bus
	hist    *history.Window
	exec    Executor
	breeder Breeder
	sink    LogSink
	log     logging.Logger
	now     func() time.Time

	// cursor indexes the agent whose turn comes next. It is rebuilt after
	// every population mutation and never points outside the sequence.
	cursor int

	scope     *taskScope
	closeOnce sync.Once
	closeErr  error
}

// New builds a Scheduler over a non-empty agent sequence. If the world is
// at tick 0 it writes the single SYSTEM verb-catalogue entry before any
// agent acts.
func New(w *world.State, agents []Agent, b *bus.Bus, optFns ...func(o *Options)) (*Scheduler, error) {
	if w == nil {
		return nil, errors.New("scheduler: nil world")
	}
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}

	opts := Options{
		Config:   DefaultConfig(),
		Executor: commands.New(),
		Breeder:  noopBreeder{},
		Sink:     discardSink{},
		Logger:   logging.NoOpLogger{},
		Now:      time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:     opts.Config,
		world:   w,
		agents:  append([]Agent(nil), agents...),
		bus:     b,
		hist:    history.New(opts.Config.HistorySize),
		exec:    opts.Executor,
		breeder: opts.Breeder,
		sink:    opts.Sink,
		log:     opts.Logger,
		now:     opts.Now,
		scope:   newTaskScope(),
	}

	if w.Tick == 0 {
		entry := core.LogEntry{
			Time:    s.now().UTC(),
			Tick:    0,
			Speaker: core.SystemSpeaker,
			Content: commands.Catalogue,
		}
		if err := s.sink.Write(entry); err != nil {
			return nil, fmt.Errorf("scheduler: write catalogue entry: %w", err)
		}
		s.log.Info("verb catalogue logged", "tick", 0)
	}

	return s, nil
}

// History exposes the conversation window (read-side collaborators only).
func (s *Scheduler) History() *history.Window { return s.hist }

// Agents returns a snapshot of the current rotation order.
func (s *Scheduler) Agents() []string {
	names := make([]string, len(s.agents))
	for i, a := range s.agents {
		names[i] = a.Name()
	}
	return names
}

// Spawn registers ancillary background work in the loop's cancellation
// scope. All such tasks are cancelled when the loop returns.
func (s *Scheduler) Spawn(fn func(ctx context.Context) error) {
	s.scope.Go(fn)
}

// RunTick advances the simulation by exactly one tick. Any collaborator
// failure aborts the tick and propagates; there is no retry or partial
// rollback.
func (s *Scheduler) RunTick(ctx context.Context) error {
	if len(s.agents) == 0 {
		return ErrNoAgents
	}
	a := s.agents[s.cursor]

	msg, err := a.Think(ctx, s.world, s.hist)
	if err != nil {
		return fmt.Errorf("tick %d: agent %s think: %w", s.world.Tick, a.Name(), err)
	}

	// The actor is persisted even if it never issues a world directive.
	s.world.EnsureAgent(a.Name())

	s.hist.Add(msg)
	if err := s.hist.Rollup(); err != nil {
		return fmt.Errorf("tick %d: context rollup: %w", s.world.Tick, err)
	}

	events, err := s.exec.Execute(s.world, s.bus, msg.Name, msg.Content)
	if err != nil {
		return fmt.Errorf("tick %d: execute commands: %w", s.world.Tick, err)
	}
	for _, ev := range events {
		s.log.Info("world event", "tick", s.world.Tick, "event", ev.String())
	}

	entry := core.LogEntry{
		Time:    s.now().UTC(),
		Tick:    s.world.Tick,
		Speaker: msg.Name,
		Content: msg.Content,
	}
	if err := s.sink.Write(entry); err != nil {
		return fmt.Errorf("tick %d: write log entry: %w", s.world.Tick, err)
	}

	s.world.Tick++
	if s.world.Tick%uint64(s.cfg.SaveEvery) == 0 {
		if err := s.world.Save(s.cfg.SavePath); err != nil {
			return fmt.Errorf("tick %d: save world: %w", s.world.Tick, err)
		}
		s.log.Info("world saved", "tick", s.world.Tick, "path", s.cfg.SavePath)
	}

	born, err := s.breeder.Step(ctx)
	if err != nil {
		return fmt.Errorf("tick %d: breeding step: %w", s.world.Tick, err)
	}
	for _, child := range born {
		s.agents = append(s.agents, child)
		s.log.Info("agent joined", "name", child.Name(), "population", len(s.agents))
	}

	s.enforceCap()
	s.rebuildCursor(a.Name())
	return nil
}

// enforceCap trims the population to MaxAgents: the first two founding
// agents are always retained, then the most recent arrivals; the middle of
// the sequence is dropped. Dropped agents stay in world-persisted records,
// they just leave the rotation.
func (s *Scheduler) enforceCap() {
	if len(s.agents) <= s.cfg.MaxAgents {
		return
	}
	anchors := 2
	tail := s.cfg.MaxAgents - anchors

	keep := make([]Agent, 0, s.cfg.MaxAgents)
	keep = append(keep, s.agents[:anchors]...)
	if tail > 0 {
		keep = append(keep, s.agents[len(s.agents)-tail:]...)
	}

	dropped := make([]string, 0, len(s.agents)-len(keep))
	for _, a := range s.agents[anchors : len(s.agents)-tail] {
		dropped = append(dropped, a.Name())
	}

	s.agents = keep
	s.log.Info("population capped", "max", s.cfg.MaxAgents, "dropped", dropped)
}

// rebuildCursor re-derives the rotation index after any population change:
// the next turn belongs to the slot immediately after the agent that just
// acted, measured in the new sequence. If that agent was evicted the
// rotation restarts at the front.
func (s *Scheduler) rebuildCursor(lastActor string) {
	for i, a := range s.agents {
		if a.Name() == lastActor {
			s.cursor = (i + 1) % len(s.agents)
			return
		}
	}
	s.cursor = 0
}

// Loop calls RunTick until maxTicks is reached (maxTicks <= 0 means run
// forever) or ctx is cancelled. Ticks are strictly sequential. On return it
// closes the log sink exactly once and cancels any background tasks
// registered via Spawn.
func (s *Scheduler) Loop(ctx context.Context, maxTicks int) error {
	defer s.shutdown()
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.RunTick(ctx); err != nil {
			return err
		}
		count++
		if maxTicks > 0 && count >= maxTicks {
			return nil
		}
	}
}

// shutdown closes the sink once and requests cancellation of leftover
// background tasks. Cancellation is requested, not awaited.
func (s *Scheduler) shutdown() {
	s.closeOnce.Do(func() {
		if err := s.sink.Close(); err != nil {
			s.closeErr = err
			s.log.Error("close log sink", "error", err)
		}
		if n := s.scope.Close(); n > 0 {
			s.log.Info("cancelled dangling tasks", "count", n)
		}
	})
}
