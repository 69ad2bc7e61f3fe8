package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MPEG-1 Layer III, 128 kbit/s, 44.1 kHz, no CRC, no padding.
var mp3FrameHeader = []byte{0xFF, 0xFB, 0x90, 0x64}

const mp3FrameSize = 417

// MP3FrameDuration is the playback time of one synthetic frame (1152 samples at 44.1 kHz).
const MP3FrameDuration = time.Duration(1152 * int64(time.Second) / 44100)

// MP3Frames returns n silent MPEG audio frames.
func MP3Frames(n int) []byte {
	frame := make([]byte, mp3FrameSize)
	copy(frame, mp3FrameHeader)
	return bytes.Repeat(frame, n)
}

// WriteMP3 writes a decodable MP3 file made of n synthetic frames.
func WriteMP3(t testing.TB, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, MP3Frames(n), 0o644); err != nil {
		t.Fatalf("write mp3 %s: %v", path, err)
	}
}
