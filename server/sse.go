package server

import (
	"errors"
	"fmt"
	"net/http"
)

// handleRoundEvents streams a round's frames as server-sent events. The
// subscription covers the round's whole topic tree, so per-persona frames
// and the round-level completion frame arrive interleaved in publish order.
// The stream ends when a round-level frame is relayed or the client goes
// away, whichever comes first.
func (s *Server) handleRoundEvents(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	sub, err := s.p.SubscribeRound(roundID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := s.logger.WithRound(roundID)
	logger.Debug("sse.open round_id=%s", roundID)

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("sse.client_gone round_id=%s", roundID)
			return
		case env, ok := <-sub.C:
			if !ok {
				return
			}

			data, err := env.Frame.Encode()
			if err != nil {
				logger.Warn("sse.encode_failed round_id=%s type=%s error=%v", roundID, env.Frame.Type, err)
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Frame.Type, data)
			flusher.Flush()

			if env.Frame.RoundLevel() {
				logger.Debug("sse.close round_id=%s type=%s", roundID, env.Frame.Type)
				return
			}
		}
	}
}
