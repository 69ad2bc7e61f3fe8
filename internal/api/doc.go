// Package api serves predigt over HTTP.
//
// Routes are registered on a chi router:
//
//	GET  /status                 backend liveness, config completeness, toolchain
//	GET  /config                 non-secret configuration
//	GET  /youtube/livestreams    recent channel livestreams (?limit=, default 10)
//	POST /audio/process          run the pipeline, streaming NDJSON progress
//	POST /audio/publish          deliver a finalized file to the remote store
//	GET  /server/files           newest remote sermons (?limit=, default 15)
//	GET  /website/themes         upcoming themes scraped from the website
//	GET  /history                recorded runs (?limit=, default 20)
//	GET  /history/{id}           one recorded run
//
// Each request reads the current Snapshot once and builds its collaborators
// from it, so a configuration reload never changes a run that already started.
// Failures classified as client errors map to 4xx, everything else to 5xx.
// The progress stream of /audio/process always answers 200 and reports stage
// failures in-band as a terminal failed event.
package api
