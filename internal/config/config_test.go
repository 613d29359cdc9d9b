package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("ANSWER_API_URL", "http://localhost:9000/ask")
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	t.Cleanup(func() {
		os.Unsetenv("ANSWER_API_URL")
		os.Unsetenv("OPENAI_API_KEY")
	})
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AnswerAPIURL != "http://localhost:9000/ask" {
		t.Errorf("Expected AnswerAPIURL 'http://localhost:9000/ask', got '%s'", cfg.AnswerAPIURL)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("ANSWER_API_URL")
	os.Unsetenv("OPENAI_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when required keys are missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "5001" {
		t.Errorf("Expected default Port '5001', got '%s'", cfg.Port)
	}

	if cfg.AnswerTimeout != 5 {
		t.Errorf("Expected default AnswerTimeout 5, got %d", cfg.AnswerTimeout)
	}

	if cfg.TTSModel != "tts-1" {
		t.Errorf("Expected default TTSModel 'tts-1', got '%s'", cfg.TTSModel)
	}

	if cfg.TTSVoice != "alloy" {
		t.Errorf("Expected default TTSVoice 'alloy', got '%s'", cfg.TTSVoice)
	}

	if cfg.TTSSpeed != 1.2 {
		t.Errorf("Expected default TTSSpeed 1.2, got %g", cfg.TTSSpeed)
	}

	if cfg.SynthWorkers != 4 {
		t.Errorf("Expected default SynthWorkers 4, got %d", cfg.SynthWorkers)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero workers", "SYNTH_WORKERS", "0"},
		{"negative answer timeout", "ANSWER_TIMEOUT", "-1"},
		{"speed out of range", "TTS_SPEED", "9.5"},
		{"zero retry attempts", "RETRY_MAX_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			os.Setenv(tt.key, tt.value)
			defer os.Unsetenv(tt.key)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	// Synthesis retries default to a single attempt: a failed segment is
	// skipped in the stream, not replayed.
	if cfg.RetryMaxAttempts != 1 {
		t.Errorf("Expected default RetryMaxAttempts 1, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.RetryInitialBackoff != 100 {
		t.Errorf("Expected default RetryInitialBackoff 100, got %d", cfg.RetryInitialBackoff)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
