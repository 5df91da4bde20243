// Package mocks provides mock implementations for testing.
//
// This package should ONLY be imported in test files (_test.go). Every mock
// exposes function fields to override behaviour and call counters for
// verification; a nil function field falls back to a sensible default.
package mocks
