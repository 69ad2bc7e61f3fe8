// Package services defines shared utilities consumed by the pipeline stages,
// the publish coordinator and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Failure markers plus the Wrap helper, so every stage error can be
//     classified with errors.Is and summarized for progress events.
package services
