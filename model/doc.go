// Package model defines the provider-agnostic abstraction agents use to
// decide what to say each turn.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from
// this package so agents remain decoupled from vendor SDKs.
package model
