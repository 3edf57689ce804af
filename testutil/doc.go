// Package testutil provides deterministic helpers for tests: a seeded,
// thread-safe random number generator and generators for synthetic test
// images in the formats the decoder accepts.
package testutil
