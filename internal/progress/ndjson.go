package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

type flusher interface {
	Flush()
}

// NDJSONEmitter writes one JSON object per line. When the writer can flush
// (http.ResponseWriter, bufio.Writer wrappers) every line is flushed
// immediately so remote callers observe progress as it happens.
type NDJSONEmitter struct {
	mu      sync.Mutex
	w       io.Writer
	enc     *json.Encoder
	flusher flusher
	now     func() time.Time
}

// NewNDJSONEmitter wraps w.
func NewNDJSONEmitter(w io.Writer) *NDJSONEmitter {
	e := &NDJSONEmitter{w: w, enc: json.NewEncoder(w), now: time.Now}
	e.enc.SetEscapeHTML(false)
	if f, ok := w.(flusher); ok {
		e.flusher = f
	}
	return e
}

// Emit encodes ev as a single line.
func (e *NDJSONEmitter) Emit(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ev.Time.IsZero() {
		ev.Time = e.now().UTC()
	}
	if err := e.enc.Encode(ev); err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
