package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

// writeSSEHeaders prepares the response for server-sent events.
func writeSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

// writeSSEEvent writes one event frame. Payloads containing newlines are split
// across multiple data lines, as a raw newline inside a data line would
// terminate the frame early.
func writeSSEEvent(w http.ResponseWriter, evt models.StreamEvent) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", evt.Type)
	for _, line := range strings.Split(evt.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')

	if _, err := fmt.Fprint(w, b.String()); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
