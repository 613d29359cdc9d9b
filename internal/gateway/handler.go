// Package gateway owns the request lifecycle: it validates the incoming
// query, fabricates a correlation ID, runs the fetch → segment → emit
// pipeline and streams the resulting events to the client.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/transitai/voice-relay/internal/answer"
	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/segmenter"
	"github.com/transitai/voice-relay/internal/stream"
)

// AnswerFetcher resolves a query into speakable answer text. It never fails;
// upstream problems surface as fallback text.
type AnswerFetcher interface {
	Fetch(ctx context.Context, q answer.Query) string
}

// Handler serves the /process streaming endpoints
type Handler struct {
	fetcher AnswerFetcher
	emitter *stream.Emitter
	logger  zerolog.Logger
}

// NewHandler creates the request coordinator
func NewHandler(fetcher AnswerFetcher, emitter *stream.Emitter) *Handler {
	return &Handler{
		fetcher: fetcher,
		emitter: emitter,
		logger:  observability.ComponentLogger("gateway"),
	}
}

// Process handles GET /process?input=<query> and streams the answer as
// server-sent events: one data: line per chunk, then a final marker.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		writeJSONError(w, http.StatusBadRequest, "No query provided")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		observability.RecordError("setup", "gateway")
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	q := answer.Query{
		Text:          input,
		CorrelationID: observability.NewCorrelationID(),
	}
	logger := h.logger.With().Str("correlation_id", q.CorrelationID).Logger()
	logger.Info().Str("input", input).Msg("New request")

	start := time.Now()
	observability.RecordStreamStart()
	defer observability.RecordStreamEnd(start)

	ctx := r.Context()
	text := h.fetcher.Fetch(ctx, q)
	segments := segmenter.Split(text)
	logger.Info().Int("segments", len(segments)).Msg("Answer segmented")

	// Headers commit the streaming response; errors past this point can only
	// surface as early stream termination.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range h.emitter.Emit(ctx, segments) {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to marshal stream event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			logger.Warn().Err(err).Msg("Client write failed, terminating stream")
			// Returning cancels r.Context(), which releases the emitter
			return
		}
		flusher.Flush()
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Request completed")
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
