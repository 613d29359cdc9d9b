package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice relay service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"5001"`

	// Answer backend configuration
	AnswerAPIURL  string `envconfig:"ANSWER_API_URL" required:"true"`
	AnswerTimeout int    `envconfig:"ANSWER_TIMEOUT" default:"5"` // seconds

	// OpenAI TTS configuration
	OpenAIAPIKey  string  `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL string  `envconfig:"OPENAI_BASE_URL" default:""` // override for testing/proxies
	TTSModel      string  `envconfig:"TTS_MODEL" default:"tts-1"`
	TTSVoice      string  `envconfig:"TTS_VOICE" default:"alloy"`
	TTSSpeed      float64 `envconfig:"TTS_SPEED" default:"1.2"`  // slightly faster speech for reduced latency
	TTSTimeout    int     `envconfig:"TTS_TIMEOUT" default:"30"` // seconds

	// Synthesis worker pool, shared across all requests
	SynthWorkers int `envconfig:"SYNTH_WORKERS" default:"4"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"1"`             // Synthesis attempts per segment (1 = no retries)
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AnswerAPIURL == "" {
		return fmt.Errorf("ANSWER_API_URL is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AnswerTimeout <= 0 {
		return fmt.Errorf("ANSWER_TIMEOUT must be positive, got %d", c.AnswerTimeout)
	}
	if c.SynthWorkers < 1 {
		return fmt.Errorf("SYNTH_WORKERS must be at least 1, got %d", c.SynthWorkers)
	}
	if c.TTSSpeed < 0.25 || c.TTSSpeed > 4.0 {
		return fmt.Errorf("TTS_SPEED must be between 0.25 and 4.0, got %g", c.TTSSpeed)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	return nil
}
