package stream

import (
	"bytes"
	"fmt"
	"net/http"
)

// Writer emits server-sent event records: the JSON payload split across
// `data:` lines, an `id:` line carrying the resumption cursor, a blank
// terminator. Comment lines start with `:`.
type Writer struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewWriter prepares the response for streaming. Fails when the
// transport cannot flush incrementally.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()

	return &Writer{w: w, f: f}, nil
}

// WriteEvent pushes one record with its resumption id
func (s *Writer) WriteEvent(id uint, payload []byte) error {
	for _, line := range bytes.Split(payload, []byte("\n")) {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\n\n", id); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// WriteComment pushes a comment line; used for the hello banner and
// idle keep-alives
func (s *Writer) WriteComment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
