package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transitai/voice-relay/internal/answer"
	"github.com/transitai/voice-relay/internal/config"
	"github.com/transitai/voice-relay/internal/gateway"
	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/stream"
	"github.com/transitai/voice-relay/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("answer_api_url", cfg.AnswerAPIURL).
		Str("tts_model", cfg.TTSModel).
		Str("tts_voice", cfg.TTSVoice).
		Int("synth_workers", cfg.SynthWorkers).
		Str("log_level", cfg.LogLevel).
		Msg("Voice Relay Service starting")

	// Process-wide pipeline components: one answer client, one TTS client and
	// one bounded synthesis pool shared by all requests
	fetcher := answer.NewClient(cfg)
	synth := tts.NewClient(cfg)
	pool := stream.NewPool(cfg.SynthWorkers)
	emitter := stream.NewEmitter(synth, pool)
	handler := gateway.NewHandler(fetcher, emitter)

	mux := http.NewServeMux()
	mux.HandleFunc("/process", handler.Process)
	mux.HandleFunc("/ws/process", handler.ProcessWS)
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"answer-backend": func(ctx context.Context) (bool, error) {
			if _, err := url.ParseRequestURI(cfg.AnswerAPIURL); err != nil {
				return false, fmt.Errorf("invalid answer backend URL: %w", err)
			}
			return true, nil
		},
		"speech-backend": func(ctx context.Context) (bool, error) {
			// Config validation only; no probe call, synthesis requests are billed
			if cfg.OpenAIAPIKey == "" {
				return false, fmt.Errorf("missing OpenAI API key")
			}
			return true, nil
		},
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		// No WriteTimeout: streaming responses must outlive any fixed deadline
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/process", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
