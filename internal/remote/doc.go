// Package remote abstracts the file store that receives published sermons.
//
// Two backends exist: FTP through github.com/jlaffaye/ftp, which opens a
// fresh control connection for every operation, and S3-compatible object
// storage through github.com/minio/minio-go/v7. Open selects one from the
// [remote] configuration section.
package remote
