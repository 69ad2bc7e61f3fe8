// Command predigt turns church livestreams into tagged, published sermon
// recordings.
//
// "predigt serve" runs the HTTP API a desktop frontend talks to. The other
// subcommands run single operations from the shell: process one livestream,
// publish a finalized file, list the remote inventory, recent livestreams,
// website themes or the run history, and report toolchain and configuration
// status.
package main
