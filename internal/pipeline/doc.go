// Package pipeline runs one sermon request end to end: download, compress,
// tag, finalize and optionally publish.
//
// Each run gets a UUID, a private scratch directory below the staging dir
// and an ordered progress stream. Stages run through stageexec, which emits
// the in-progress and completed events. The orchestrator itself emits the one
// Failed event a failing run produces, with the message "<Stage> failed:
// <cause>", and removes the scratch directory on every exit path.
//
// An Orchestrator holds a configuration snapshot. Build a new one from the
// current config for every request so runs keep the settings they started
// with.
package pipeline
