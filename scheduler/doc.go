// Package scheduler drives the simulation tick-by-tick. It owns the
// rotation cursor over the agent population, the tick loop, the
// population-cap policy, the persistence cadence and shutdown cleanup.
//
// Typical usage:
//
//	sched, err := scheduler.New(w, agents, b)
//	if err != nil { ... }
//	err = sched.Loop(ctx, 1000)
//
// Exactly one goroutine drives the loop; the only suspension point per tick
// is the agent's Think call. No two ticks ever execute concurrently.
package scheduler
