package agui

import (
	"fmt"
	"io"
	"net/http"
)

// SSEEncoder writes events to an HTTP response as Server-Sent Events,
// flushing after every event so the client sees progress immediately.
type SSEEncoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewSSEEncoder(w io.Writer) *SSEEncoder {
	enc := &SSEEncoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

func (s *SSEEncoder) Write(ev Event) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", Encode(ev)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
