// Package progress defines pipeline progress events and the emitters that
// transport them.
//
// A run emits events in non-decreasing step order and ends with exactly one
// terminal event: a Failed event, or a Completed event for Finalize (or
// Publish when publishing was chained). NDJSONEmitter streams events as
// newline-delimited JSON, Recorder keeps them for tests and CLI summaries, and
// Ordered guards the stream contract.
package progress
