// Package agent provides concrete agent implementations for the sandbox.
//
// Every agent exposes a single capability: produce a directed message given
// the world and the conversation window. The scheduler depends only on that
// capability (scheduler.Agent), never on construction details here.
//
//   - ModelAgent: persona-driven agent backed by a language model, with
//     optional durable memory and bus publication
//   - ScriptedAgent: deterministic canned-line agent for tests and
//     offline runs
package agent
