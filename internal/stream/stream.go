// Package stream serializes pipeline progress events to a caller over a
// long-lived connection, one JSON object per line, flushed per event so
// the remote reader sees each record before the pipeline proceeds.
package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/rotisserie/eris"
)

// Emitter delivers one progress event to the caller. Implementations
// must make the event visible before returning — no batching, no
// reordering. A returned error means the connection is unusable and the
// producer should stop.
type Emitter interface {
	Emit(event any) error
}

// LineEmitter writes newline-delimited JSON to w, flushing after each
// event when w supports it (http.ResponseWriter does).
type LineEmitter struct {
	mu    sync.Mutex
	w     io.Writer
	flush func()
}

// NewLineEmitter wraps w in a flush-per-event NDJSON emitter.
func NewLineEmitter(w io.Writer) *LineEmitter {
	e := &LineEmitter{w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flush = f.Flush
	}
	return e
}

// Emit marshals the event, writes it with a trailing newline, and
// flushes. Write failures surface as errors so the pipeline can treat
// the stream as aborted.
func (e *LineEmitter) Emit(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "stream: marshal event")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "stream: write event")
	}
	if e.flush != nil {
		e.flush()
	}
	return nil
}
