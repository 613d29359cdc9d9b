package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/transitai/voice-relay/internal/answer"
	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/segmenter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins; the relay holds no
		// user state worth forging requests against
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ProcessWS handles GET /ws/process?input=<query>. It delivers the same
// event sequence as the SSE endpoint, one JSON text message per event.
func (h *Handler) ProcessWS(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		writeJSONError(w, http.StatusBadRequest, "No query provided")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	q := answer.Query{
		Text:          input,
		CorrelationID: observability.NewCorrelationID(),
	}
	logger := h.logger.With().Str("correlation_id", q.CorrelationID).Logger()
	logger.Info().Str("input", input).Msg("New WebSocket request")

	start := time.Now()
	observability.RecordStreamStart()
	defer observability.RecordStreamEnd(start)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing after the query; reading only detects closure
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	text := h.fetcher.Fetch(ctx, q)
	segments := segmenter.Split(text)
	logger.Info().Int("segments", len(segments)).Msg("Answer segmented")

	for ev := range h.emitter.Emit(ctx, segments) {
		if err := conn.WriteJSON(ev); err != nil {
			logger.Warn().Err(err).Msg("WebSocket write failed, terminating stream")
			cancel()
			break
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	logger.Info().Dur("elapsed", time.Since(start)).Msg("WebSocket request completed")
}
