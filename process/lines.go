package process

import (
	"bytes"
	"sync"
)

// lineWriter captures everything written to it and hands each complete
// line to onLine. Lines end at '\n' or '\r'.
type lineWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	pending []byte
	onLine  func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	if w.onLine == nil {
		return len(p), nil
	}

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexAny(w.pending, "\r\n")
		if i < 0 {
			break
		}
		if line := w.pending[:i]; len(line) > 0 {
			w.onLine(string(line))
		}
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

// flush delivers a trailing line that had no terminator.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.onLine != nil && len(w.pending) > 0 {
		w.onLine(string(w.pending))
	}
	w.pending = nil
}

func (w *lineWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return bytes.Clone(w.buf.Bytes())
}
