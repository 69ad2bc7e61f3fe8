// Package inventory lists the remote store newest first. Dates come from the
// file name prefix; names without one sort last instead of failing the listing.
package inventory
