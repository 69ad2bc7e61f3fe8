// Package finalize renames tagged artifacts to their canonical public file
// name, "YYYY-MM-DD - <title>.mp3", inside the output directory.
package finalize
