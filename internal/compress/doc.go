// Package compress implements the compression stage: a single ffmpeg pass
// that applies the acompressor filter while re-encoding to MP3 at a fixed
// bitrate. Failures carry the tail of ffmpeg's stderr.
package compress
