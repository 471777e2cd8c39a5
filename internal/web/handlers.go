package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const defaultPullMax = 100

// /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}
	journal := 0
	if s.evbuf != nil {
		journal = s.evbuf.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"connected":   s.dev.IsConnected(),
		"focused":     s.dev.HasFocus(),
		"journal_len": journal,
	})
}

// /api/v1/events?max=N&after=RFC3339
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}
	if s.evbuf == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "journal not enabled"})
		return
	}

	max := defaultPullMax
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "max must be a positive integer"})
			return
		}
		max = n
	}
	var after time.Time
	if v := r.URL.Query().Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "after must be RFC3339"})
			return
		}
		after = t
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": s.evbuf.Pull(after, max)})
}

// /api/v1/events/stream: SSE of journal entries
func (s *Server) handleEventsStream(w http.ResponseWriter, r *http.Request) {
	if s.evbuf == nil {
		http.Error(w, "journal not enabled", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, _ = w.Write([]byte(": welcome\n\n"))
	flusher.Flush()

	last := time.Now().Add(-time.Second)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	poll := time.NewTicker(s.pollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sse client disconnected")
			return

		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()

		case <-poll.C:
			batch := s.evbuf.Pull(last, defaultPullMax)
			if len(batch) == 0 {
				continue
			}
			last = batch[len(batch)-1].Time

			for _, e := range batch {
				data, err := json.Marshal(e)
				if err != nil {
					s.logger.Warn("sse marshal error", "error", err)
					continue
				}
				_, _ = w.Write([]byte("event: " + e.Kind + "\ndata: "))
				_, _ = w.Write(data)
				_, _ = w.Write([]byte("\n\n"))
			}
			flusher.Flush()
		}
	}
}
