package keylog

import (
	"fmt"
	"os"
	"sync"
)

// Writer appends key log lines to a file. The file is opened lazily on the
// first append and stays open for the life of the process; each line is
// written with a single Write call under the writer's lock, so lines from
// concurrent connections never interleave.
//
// A Writer with an empty path is inert: Append succeeds without writing
// anything. This keeps an intercepted process working when no log
// destination is configured.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
	seen map[[ClientRandomSize]byte]struct{}
}

// NewWriter returns a writer appending to path. If dedup is set, records
// whose client random was already written are dropped; the client random is
// unique per session, so it serves as the cache key.
func NewWriter(path string, dedup bool) *Writer {
	w := &Writer{path: path}
	if dedup {
		w.seen = make(map[[ClientRandomSize]byte]struct{})
	}
	return w
}

// Append writes one record as a complete key log line.
func (w *Writer) Append(rec Record) error {
	if w.path == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seen != nil {
		if _, ok := w.seen[rec.ClientRandom]; ok {
			return nil
		}
	}

	if w.file == nil {
		f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("keylog: open %s: %w", w.path, err)
		}
		w.file = f
	}

	if _, err := w.file.WriteString(rec.Line() + "\n"); err != nil {
		return fmt.Errorf("keylog: append %s: %w", w.path, err)
	}
	if w.seen != nil {
		w.seen[rec.ClientRandom] = struct{}{}
	}
	return nil
}

// Close closes the underlying file, if one was opened.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
