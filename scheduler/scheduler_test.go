package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrarium/bus"
	"terrarium/commands"
	"terrarium/core"
	"terrarium/internal/testutil"
	"terrarium/scheduler"
	"terrarium/world"
)

func testConfig(t *testing.T) scheduler.Config {
	t.Helper()
	cfg := scheduler.DefaultConfig()
	cfg.SavePath = filepath.Join(t.TempDir(), "world.json")
	return cfg
}

func newScheduler(t *testing.T, agents []scheduler.Agent, optFns ...func(o *scheduler.Options)) *scheduler.Scheduler {
	t.Helper()
	w := world.New()
	opts := append([]func(o *scheduler.Options){scheduler.WithConfig(testConfig(t))}, optFns...)
	s, err := scheduler.New(w, agents, bus.New(), opts...)
	require.NoError(t, err)
	return s
}

func stubs(names ...string) []scheduler.Agent {
	out := make([]scheduler.Agent, len(names))
	for i, n := range names {
		out[i] = testutil.NewStubAgent(n, "hello from "+n)
	}
	return out
}

func TestNew_RequiresAgents(t *testing.T) {
	_, err := scheduler.New(world.New(), nil, bus.New())
	require.ErrorIs(t, err, scheduler.ErrNoAgents)
}

func TestNew_WritesCatalogueOnlyOnFreshWorld(t *testing.T) {
	sink := &testutil.CaptureSink{}
	newScheduler(t, stubs("A", "B"), scheduler.WithSink(sink))

	require.Len(t, sink.Entries, 1)
	entry := sink.Entries[0]
	assert.Equal(t, core.SystemSpeaker, entry.Speaker)
	assert.Equal(t, uint64(0), entry.Tick)
	assert.Equal(t, commands.Catalogue, entry.Content)

	// A resumed world must not get a second catalogue entry.
	resumed := world.New()
	resumed.Tick = 7
	sink2 := &testutil.CaptureSink{}
	cfg := testConfig(t)
	_, err := scheduler.New(resumed, stubs("A", "B"), bus.New(),
		scheduler.WithConfig(cfg), scheduler.WithSink(sink2))
	require.NoError(t, err)
	assert.Empty(t, sink2.Entries)
}

func TestRunTick_RotationIsStrict(t *testing.T) {
	agents := stubs("A", "B", "C")
	sink := &testutil.CaptureSink{}
	s := newScheduler(t, agents, scheduler.WithSink(sink))

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, s.RunTick(context.Background()))
	}

	// Skip the tick-0 catalogue entry.
	speakers := sink.Speakers()[1:]
	require.Len(t, speakers, n)
	for i, sp := range speakers {
		assert.Equal(t, []string{"A", "B", "C"}[i%3], sp, "tick %d", i)
	}
	for i, a := range agents {
		calls := a.(*testutil.StubAgent).Calls()
		assert.Contains(t, []int{n / 3, n/3 + 1}, calls, "agent %d", i)
	}
}

func TestRunTick_AdvancesTickByExactlyOne(t *testing.T) {
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(), scheduler.WithConfig(testConfig(t)))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.RunTick(context.Background()))
		assert.Equal(t, uint64(i), w.Tick)
	}
}

func TestRunTick_LogEntryMatchesTick(t *testing.T) {
	sink := &testutil.CaptureSink{}
	s := newScheduler(t, stubs("A", "B"), scheduler.WithSink(sink))

	for i := 0; i < 4; i++ {
		require.NoError(t, s.RunTick(context.Background()))
	}
	for i, e := range sink.Entries[1:] {
		assert.Equal(t, uint64(i), e.Tick)
	}
}

func TestRunTick_UpsertsActorIntoRegistry(t *testing.T) {
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(), scheduler.WithConfig(testConfig(t)))
	require.NoError(t, err)

	require.NoError(t, s.RunTick(context.Background()))
	_, ok := w.Agents["A"]
	assert.True(t, ok, "actor must be registered even without directives")

	// Idempotent: an existing record survives untouched.
	w.Agents["A"]["location"] = "garden"
	require.NoError(t, s.RunTick(context.Background()))
	require.NoError(t, s.RunTick(context.Background()))
	assert.Equal(t, "garden", w.Agents["A"]["location"])
}

func TestRunTick_SaveCadence(t *testing.T) {
	cfg := testConfig(t)
	cfg.SaveEvery = 2
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(), scheduler.WithConfig(cfg))
	require.NoError(t, err)

	saved := func() bool {
		_, err := os.Stat(cfg.SavePath)
		return err == nil
	}

	require.NoError(t, s.RunTick(context.Background())) // tick -> 1
	assert.False(t, saved(), "no save at tick 1")

	require.NoError(t, s.RunTick(context.Background())) // tick -> 2
	assert.True(t, saved(), "save at tick 2")
	require.NoError(t, os.Remove(cfg.SavePath))

	require.NoError(t, s.RunTick(context.Background())) // tick -> 3
	assert.False(t, saved(), "no save at tick 3")

	require.NoError(t, s.RunTick(context.Background())) // tick -> 4
	assert.True(t, saved(), "save at tick 4")

	loaded, err := world.Load(cfg.SavePath)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), loaded.Tick)
}

func TestRunTick_BredAgentsJoinRotationAfterActor(t *testing.T) {
	breeder := &testutil.QueueBreeder{Batches: [][]scheduler.Agent{stubs("C")}}
	sink := &testutil.CaptureSink{}
	s := newScheduler(t, stubs("A", "B"),
		scheduler.WithSink(sink), scheduler.WithBreeder(breeder))

	for i := 0; i < 6; i++ {
		require.NoError(t, s.RunTick(context.Background()))
	}
	// C joins during tick 1 (actor A) and must be reachable without
	// revisiting A out of order.
	assert.Equal(t, []string{"A", "B", "C", "A", "B", "C"}, sink.Speakers()[1:])
}

func TestEnforceCap_KeepsFoundersAndNewestArrivals(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxAgents = 3
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B", "C", "D", "E"), bus.New(), scheduler.WithConfig(cfg))
	require.NoError(t, err)

	require.NoError(t, s.RunTick(context.Background()))
	assert.Equal(t, []string{"A", "B", "E"}, s.Agents())
}

func TestEnforceCap_EvictedActorRestartsRotation(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxAgents = 4
	// D and E arrive while C is the actor; C sits in the middle and is
	// evicted by the cap, so the rotation restarts at the front.
	breeder := &testutil.QueueBreeder{Batches: [][]scheduler.Agent{nil, nil, stubs("D", "E")}}
	sink := &testutil.CaptureSink{}
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B", "C"), bus.New(),
		scheduler.WithConfig(cfg), scheduler.WithSink(sink), scheduler.WithBreeder(breeder))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.RunTick(context.Background()))
	}
	assert.Equal(t, []string{"A", "B", "D", "E"}, s.Agents())
	assert.Equal(t, []string{"A", "B", "C", "A"}, sink.Speakers()[1:])
}

func TestRunTick_PopulationNeverExceedsCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxAgents = 4
	batches := make([][]scheduler.Agent, 10)
	for i := range batches {
		batches[i] = stubs(string(rune('F' + i)))
	}
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(),
		scheduler.WithConfig(cfg), scheduler.WithBreeder(&testutil.QueueBreeder{Batches: batches}))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.RunTick(context.Background()))
		assert.LessOrEqual(t, len(s.Agents()), cfg.MaxAgents)
		names := s.Agents()
		assert.Equal(t, "A", names[0])
		assert.Equal(t, "B", names[1])
	}
}

func TestRunTick_ThinkFailureIsFatal(t *testing.T) {
	a := testutil.NewStubAgent("A", "hi")
	boom := errors.New("model unreachable")
	a.FailWith(boom)
	w := world.New()
	s, err := scheduler.New(w, []scheduler.Agent{a}, bus.New(), scheduler.WithConfig(testConfig(t)))
	require.NoError(t, err)

	err = s.RunTick(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(0), w.Tick, "failed tick must not advance the world")
}

func TestLoop_BudgetRunsExactlyNTicksAndClosesSinkOnce(t *testing.T) {
	sink := &testutil.CaptureSink{}
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(),
		scheduler.WithConfig(testConfig(t)), scheduler.WithSink(sink))
	require.NoError(t, err)

	require.NoError(t, s.Loop(context.Background(), 5))
	assert.Equal(t, uint64(5), w.Tick)
	assert.Len(t, sink.Entries, 6) // catalogue + 5 ticks
	assert.Equal(t, 1, sink.Closes)
}

func TestLoop_UnboundedRunsUntilCancelled(t *testing.T) {
	sink := &testutil.CaptureSink{}
	w := world.New()
	s, err := scheduler.New(w, stubs("A", "B"), bus.New(),
		scheduler.WithConfig(testConfig(t)), scheduler.WithSink(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Loop(ctx, 0) }()

	require.Eventually(t, func() bool { return w.Tick >= 10 },
		5*time.Second, time.Millisecond, "unbounded loop should keep ticking")
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	assert.Equal(t, 1, sink.Closes)
}

func TestLoop_ErrorStillClosesSink(t *testing.T) {
	a := testutil.NewStubAgent("A", "hi")
	sink := &testutil.CaptureSink{}
	w := world.New()
	s, err := scheduler.New(w, []scheduler.Agent{a, testutil.NewStubAgent("B", "yo")}, bus.New(),
		scheduler.WithConfig(testConfig(t)), scheduler.WithSink(sink))
	require.NoError(t, err)

	boom := errors.New("broken collaborator")
	a.FailWith(boom)
	require.ErrorIs(t, s.Loop(context.Background(), 3), boom)
	assert.Equal(t, 1, sink.Closes)
}

func TestLoop_CancelsSpawnedTasks(t *testing.T) {
	s := newScheduler(t, stubs("A", "B"))

	started := make(chan struct{})
	stopped := make(chan struct{})
	s.Spawn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})
	<-started

	require.NoError(t, s.Loop(context.Background(), 2))
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("background task was not cancelled at loop exit")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := scheduler.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxAgents = 1
	require.Error(t, cfg.Validate())

	cfg = scheduler.DefaultConfig()
	cfg.SaveEvery = 0
	require.Error(t, cfg.Validate())

	cfg = scheduler.DefaultConfig()
	cfg.SavePath = ""
	require.Error(t, cfg.Validate())
}
