// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language / reasoning models inside CogMesh.
//
// Core goals:
//   - Keep message shapes minimal and transport independent
//   - Offer a synchronous Complete contract that slots directly into a
//     transition function
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so state domains such as chat remain decoupled from vendor SDKs.
package model
