// Package media holds the artifact type handed between pipeline stages. The
// subpackages wrap the tools that inspect audio files.
package media

import (
	"os"
	"path/filepath"
	"strings"
)

// Artifact is an audio file produced by one stage and consumed by the next.
// DurationMs is zero until a stage measured it.
type Artifact struct {
	Path       string `json:"path"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// Ext returns the lower-cased file extension without the dot.
func (a Artifact) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Path)), ".")
}

// Size returns the file size in bytes, or -1 when the file is unreadable.
func (a Artifact) Size() int64 {
	info, err := os.Stat(a.Path)
	if err != nil {
		return -1
	}
	return info.Size()
}
