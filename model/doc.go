// Package model defines the provider-agnostic text-generation boundary used
// by agents and the planner.
//
// Core pieces:
//   - Generator: Generate(ctx, system, prompt, maxTokens) (string, error)
//   - ServiceError / ErrMalformedResponse error taxonomy
//   - ExtractJSON / DecodeJSON for untrusted, fence-wrapped replies
//   - CallLimiter / WithCallLimit to cap generation calls per process
//   - ScriptedGenerator for deterministic tests and examples
//
// Providers (Anthropic, OpenAI) live in sub packages so higher layers stay
// decoupled from vendor SDKs.
package model
