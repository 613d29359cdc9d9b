// Package answer fetches and normalizes responses from the remote
// question-answering backend. The backend does not guarantee a single
// response schema, so the raw payload is probed against an ordered list of
// known shapes. Fetch never fails from the caller's point of view: every
// upstream problem degrades into a speakable fallback string.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/transitai/voice-relay/internal/config"
	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/resilience"
)

const (
	// TimeoutFallback is spoken when the answer backend does not respond in time.
	TimeoutFallback = "Sorry, the answer service is taking too long to respond. Please try again."
	// genericFallbackFmt is spoken for every other upstream failure.
	genericFallbackFmt = "Sorry, there was an error getting that answer: %s"
)

// Query is one user question bound to a fresh correlation ID. It is created
// by the request coordinator and never outlives its HTTP exchange.
type Query struct {
	Text          string
	CorrelationID string
}

// apiRequest is the wire format expected by the answer backend.
type apiRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// Client is an HTTP client for the answer backend, guarded by a circuit
// breaker so a dead backend fails fast instead of burning the full timeout
// on every request.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates an answer backend client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		url: cfg.AnswerAPIURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AnswerTimeout) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"answer",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: observability.ComponentLogger("answer"),
	}
}

// Fetch sends the query to the answer backend and returns normalized answer
// text. On any failure it returns a human-readable fallback string instead
// of an error, so the pipeline always has something to speak.
func (c *Client) Fetch(ctx context.Context, q Query) string {
	start := time.Now()
	logger := c.logger.With().Str("correlation_id", q.CorrelationID).Logger()
	logger.Info().Str("query", q.Text).Msg("Sending request to answer backend")

	var text string
	err := c.breaker.Call(func() error {
		var callErr error
		text, callErr = c.roundTrip(ctx, q)
		return callErr
	})
	observability.RecordCircuitBreakerState(c.breaker.Name(), float64(c.breaker.State()))
	observability.RecordAnswer(err == nil, time.Since(start))

	if err != nil {
		observability.RecordError("fetch", "answer")
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Answer fetch failed, using fallback")
		if isTimeout(err) {
			return TimeoutFallback
		}
		return fmt.Sprintf(genericFallbackFmt, err)
	}

	logger.Info().
		Str("answer", text).
		Dur("elapsed", time.Since(start)).
		Msg("Answer received")
	return text
}

func (c *Client) roundTrip(ctx context.Context, q Query) (string, error) {
	payload, err := json.Marshal(apiRequest{Query: q.Text, SessionID: q.CorrelationID})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("answer backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("answer backend returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	c.logger.Debug().RawJSON("payload", jsonOrQuoted(raw)).Msg("Raw answer backend payload")

	return extractAnswer(raw)
}

// isTimeout distinguishes the timeout fallback from the generic one
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

// jsonOrQuoted keeps debug logging valid when the backend returns non-JSON
func jsonOrQuoted(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

// shapeMatcher tests the parsed body against one known response shape.
// Matchers check field presence and value kind explicitly; a no-match is not
// an error, the next matcher is simply tried.
type shapeMatcher struct {
	name  string
	match func(body map[string]json.RawMessage) (string, bool)
}

var shapeMatchers = []shapeMatcher{
	{"answer-string", matchAnswerString},
	{"answer-list", matchAnswerList},
	{"legacy-text", matchLegacyText},
	{"answer-any", matchAnswerAny},
}

// extractAnswer normalizes the backend envelope into plain answer text.
// The envelope carries a nested JSON-encoded body field; the body's own
// shape varies and is resolved by the ordered matcher list.
func extractAnswer(raw []byte) (string, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("unparseable envelope: %w", err)
	}

	bodyRaw, ok := env["body"]
	if !ok {
		return "", errors.New("envelope has no body field")
	}

	// The body field is normally a JSON string holding a second JSON document
	inner := bodyRaw
	var bodyStr string
	if json.Unmarshal(bodyRaw, &bodyStr) == nil {
		inner = []byte(bodyStr)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(inner, &body); err != nil {
		// An unparseable body that is itself a string is spoken verbatim
		if strings.TrimSpace(bodyStr) != "" {
			return bodyStr, nil
		}
		return "", fmt.Errorf("unparseable body: %w", err)
	}

	for _, m := range shapeMatchers {
		if text, ok := m.match(body); ok {
			return text, nil
		}
	}
	return "", errors.New("no known shape matched the answer body")
}

// matchAnswerString handles {"answer": "..."}
func matchAnswerString(body map[string]json.RawMessage) (string, bool) {
	raw, ok := body["answer"]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// matchAnswerList handles {"answer": [{"type": "text", "text": "..."}, ...]}
func matchAnswerList(body map[string]json.RawMessage) (string, bool) {
	raw, ok := body["answer"]
	if !ok {
		return "", false
	}
	var items []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &items) != nil {
		return "", false
	}
	for _, item := range items {
		if item.Type == "text" && item.Text != "" {
			return item.Text, true
		}
	}
	return "", false
}

// matchLegacyText handles the legacy flat {"text": "..."} shape
func matchLegacyText(body map[string]json.RawMessage) (string, bool) {
	raw, ok := body["text"]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// matchAnswerAny stringifies an answer field of any other kind as a last
// resort, so an unexpected-but-present answer is still spoken
func matchAnswerAny(body map[string]json.RawMessage) (string, bool) {
	raw, ok := body["answer"]
	if !ok {
		return "", false
	}
	return string(bytes.TrimSpace(raw)), true
}
