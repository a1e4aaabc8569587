package breeding_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrarium/breeding"
	"terrarium/bus"
	"terrarium/core"
	"terrarium/internal/testutil"
	"terrarium/scheduler"
	"terrarium/world"
)

func newManager(t *testing.T, optFns ...func(o *breeding.Options)) (*breeding.Manager, *world.State, *bus.Bus) {
	t.Helper()
	w := world.New()
	w.EnsureAgent("Eve")
	w.EnsureAgent("Adam")
	b := bus.New()
	factory := func(name, persona string) scheduler.Agent {
		return testutil.NewStubAgent(name, persona)
	}
	return breeding.New(w, b, factory, optFns...), w, b
}

func TestStep_NoProposalsYieldsNoBirths(t *testing.T) {
	m, _, _ := newManager(t)
	born, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Empty(t, born)
}

func TestStep_ProposalProducesChild(t *testing.T) {
	m, w, b := newManager(t)
	b.Publish(bus.TopicBreed, core.NewMessage("Eve", "Adam"))

	born, err := m.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, born, 1)

	name := born[0].Name()
	assert.True(t, strings.HasPrefix(name, "Eve-Adam-"), "child name %q", name)

	parents, ok := w.Attr(name, "parents")
	require.True(t, ok, "child missing from world registry")
	assert.Equal(t, "Eve+Adam", parents)
}

func TestStep_RejectsUnknownPartner(t *testing.T) {
	m, w, b := newManager(t)
	b.Publish(bus.TopicBreed, core.NewMessage("Eve", "Lilith"))

	born, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Empty(t, born)
	assert.Len(t, w.Agents, 2)
}

func TestStep_RejectsSelfAndEmptyPartner(t *testing.T) {
	m, _, b := newManager(t)
	b.Publish(bus.TopicBreed, core.NewMessage("Eve", "Eve"))
	b.Publish(bus.TopicBreed, core.NewMessage("Eve", "   "))

	born, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Empty(t, born)
}

func TestStep_HonorsMaxPerStep(t *testing.T) {
	m, _, b := newManager(t, func(o *breeding.Options) { o.MaxPerStep = 1 })
	b.Publish(bus.TopicBreed, core.NewMessage("Eve", "Adam"))
	b.Publish(bus.TopicBreed, core.NewMessage("Adam", "Eve"))

	born, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Len(t, born, 1)

	// The second proposal survives until the next step.
	born, err = m.Step(context.Background())
	require.NoError(t, err)
	assert.Len(t, born, 1)
}

func TestStep_ReturnsOnCancelledContext(t *testing.T) {
	m, _, _ := newManager(t, func(o *breeding.Options) { o.MaxPerStep = 2 })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	born, err := m.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, born)
}
