// Package ffprobe wraps ffprobe's JSON report for the checks the compression
// stage performs on its output: stream presence, duration and bitrate.
package ffprobe
