// Package state holds the last-known value and availability for every
// published entity, keyed by unique identifier.
//
// No history is kept: each entity has exactly one state record, replaced
// in place on every tick. The pub/sub mechanism exists for the diagnostics
// API's live event stream.
package state
