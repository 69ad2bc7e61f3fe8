// Package tagging writes the sermon ID3v2.4 tag set.
//
// Tagging is a full overwrite: all prior frames are deleted, then title,
// speaker, album, genre, copyright, recording date, year and length are
// written. The length frame is measured from the decoded MPEG frames at
// tagging time.
package tagging
