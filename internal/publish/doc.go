// Package publish delivers finalized sermons to the remote store.
//
// The coordinator reads the date prefix of the finalized file name, derives
// the canonical remote name "predigt-<date>_<slug>.mp3", renames the local
// file to it and uploads it in one store call. A missing or invalid date is
// rejected before anything is touched. A per-name flock lock keeps two runs
// from publishing the same date concurrently, and the optional existence
// check turns a re-publish into AlreadyPublished instead of an overwrite.
//
// After the upload the notification service runs; its failure is reported in
// Result and never undoes the publication.
package publish
