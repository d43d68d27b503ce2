package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"repotrack/internal/pipeline"
)

// handleEvents streams pipeline stage transitions as server-sent events.
// The subscription lives for the duration of the request; slow readers
// drop events rather than stalling the pipeline.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	// Subscribe before announcing the stream so no event published after
	// the client sees the opening frame can be missed.
	var events <-chan pipeline.Event
	if s.broker != nil {
		events = s.broker.Subscribe(r.Context())
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	if events == nil {
		<-r.Context().Done()
		return
	}
	for evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			s.logger.Error("encoding event", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}
