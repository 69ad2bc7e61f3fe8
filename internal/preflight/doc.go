// Package preflight provides readiness checks for the toolchain, directories
// and external services predigt depends on.
//
// The checks back the "predigt status" command and the server's /status
// endpoint. A failing check never blocks a run by itself; stages report their
// own typed errors.
package preflight
