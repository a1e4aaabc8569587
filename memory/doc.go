// Package memory defines durable agent memory: what each agent said and
// learned, keyed by owner. The scheduler never touches it directly; agents
// store and recall while thinking. An in-memory implementation lives here,
// a sqlite-backed one in the sqlite subpackage.
package memory
