package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/transitai/voice-relay/internal/config"
	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/resilience"
)

// Client synthesizes speech via the OpenAI speech API. Voice, model and
// speed are fixed at construction time and shared by every call.
type Client struct {
	client oai.Client
	model  string
	voice  string
	speed  float64
	retry  *resilience.RetryConfig
	logger zerolog.Logger
}

// NewClient creates an OpenAI TTS client from configuration
func NewClient(cfg *config.Config) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TTSTimeout) * time.Second,
		}),
		// Retry policy lives in one place: the resilience package below.
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &Client{
		client: oai.NewClient(reqOpts...),
		model:  cfg.TTSModel,
		voice:  cfg.TTSVoice,
		speed:  cfg.TTSSpeed,
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		logger: observability.ComponentLogger("tts"),
	}
}

// Synthesize converts one segment of text into base64-encoded audio. All
// failures are captured in the returned Result, never raised to the caller.
func (c *Client) Synthesize(ctx context.Context, index int, text string) Result {
	start := time.Now()
	c.logger.Debug().Int("segment", index).Str("text", text).Msg("Converting segment to speech")

	var audio []byte
	err := resilience.Retry(ctx, func() error {
		resp, reqErr := c.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
			Model: oai.SpeechModel(c.model),
			Voice: oai.AudioSpeechNewParamsVoice(c.voice),
			Input: text,
			Speed: oai.Float(c.speed),
		})
		if reqErr != nil {
			return fmt.Errorf("speech request: %w", reqErr)
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read audio body: %w", readErr)
		}
		if len(data) == 0 {
			return errors.New("speech backend returned empty audio")
		}
		audio = data
		return nil
	}, c.retry, resilience.IsRetryableNetworkError)

	observability.RecordTTS(err == nil, time.Since(start))

	if err != nil {
		observability.RecordError("synthesis", "tts")
		c.logger.Warn().Err(err).Int("segment", index).Msg("Speech synthesis failed")
		return Result{Index: index, Err: err}
	}

	c.logger.Debug().
		Int("segment", index).
		Int("audio_bytes", len(audio)).
		Dur("elapsed", time.Since(start)).
		Msg("Speech generated")

	return Result{
		Index:    index,
		AudioB64: base64.StdEncoding.EncodeToString(audio),
	}
}
