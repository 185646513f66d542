// Package config provides configuration loading for glossgen.
package config

import (
	"fmt"
	"time"

	"github.com/lexcraftlabs/glossgen/internal/language"
)

// Config is the root configuration, one section per subsystem.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Generation GenerationConfig `koanf:"generation"`
	Enrich     EnrichConfig     `koanf:"enrich"`
	Gate       GateConfig       `koanf:"gate"`
	Paths      PathsConfig      `koanf:"paths"`
	Events     EventsConfig     `koanf:"events"`
}

// ServerConfig configures the HTTP server (serve mode).
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig configures trace and metric export.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// GenerationConfig configures the LLM generation client, shared by
// enrichment, the answerability oracle and the judge.
type GenerationConfig struct {
	BaseURL           string   `koanf:"base_url"`
	Model             string   `koanf:"model"`
	APIKey            Secret   `koanf:"api_key"`
	Timeout           Duration `koanf:"timeout"`
	RequestsPerMinute float64  `koanf:"requests_per_minute"`
	Burst             int      `koanf:"burst"`
}

// EnrichConfig configures the enrichment orchestrator.
type EnrichConfig struct {
	Concurrency     int      `koanf:"concurrency"`
	MaxAttempts     int      `koanf:"max_attempts"`
	GenerateTimeout Duration `koanf:"generate_timeout"`
}

// GateConfig configures the QA gate engine.
type GateConfig struct {
	OracleConcurrency int `koanf:"oracle_concurrency"`

	// Judge selects the answer comparison strategy: "llm" or
	// "embedding".
	Judge string `koanf:"judge"`

	// EmbeddingModel and EmbeddingThreshold apply to the embedding
	// judge only.
	EmbeddingModel     string  `koanf:"embedding_model"`
	EmbeddingThreshold float64 `koanf:"embedding_threshold"`
}

// PathsConfig locates the on-disk working directories.
type PathsConfig struct {
	ReviewFile    string `koanf:"review_file"`
	CheckpointDir string `koanf:"checkpoint_dir"`
	ReportDir     string `koanf:"report_dir"`
	WatchDir      string `koanf:"watch_dir"`
}

// EventsConfig configures the optional NATS event publisher. Publishing
// is disabled when URL is empty.
type EventsConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// Default returns configuration with production defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8085,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "glossgen",
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			SampleRate:  1.0,
		},
		Generation: GenerationConfig{
			BaseURL:           "https://api.openai.com",
			Model:             "gpt-4o-mini",
			Timeout:           Duration(60 * time.Second),
			RequestsPerMinute: 50,
			Burst:             5,
		},
		Enrich: EnrichConfig{
			Concurrency:     4,
			MaxAttempts:     3,
			GenerateTimeout: Duration(60 * time.Second),
		},
		Gate: GateConfig{
			OracleConcurrency:  4,
			Judge:              "llm",
			EmbeddingThreshold: 0.82,
		},
		Paths: PathsConfig{
			ReviewFile:    "data/manual_review.jsonl",
			CheckpointDir: "data/checkpoints",
			ReportDir:     "data/reports",
			WatchDir:      "data/seeds",
		},
		Events: EventsConfig{
			Subject: "glossgen.batches",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
			return fmt.Errorf("telemetry protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry sample rate must be in [0, 1], got %v", c.Telemetry.SampleRate)
		}
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich concurrency must be positive, got %d", c.Enrich.Concurrency)
	}
	if c.Enrich.MaxAttempts <= 0 {
		return fmt.Errorf("enrich max attempts must be positive, got %d", c.Enrich.MaxAttempts)
	}
	if c.Gate.OracleConcurrency <= 0 {
		return fmt.Errorf("gate oracle concurrency must be positive, got %d", c.Gate.OracleConcurrency)
	}
	if c.Gate.Judge != "llm" && c.Gate.Judge != "embedding" {
		return fmt.Errorf("gate judge must be 'llm' or 'embedding', got %q", c.Gate.Judge)
	}
	if c.Generation.RequestsPerMinute <= 0 {
		return fmt.Errorf("generation requests per minute must be positive, got %v", c.Generation.RequestsPerMinute)
	}
	return nil
}

// ValidateScope checks a (language, level) pair against the known level
// systems. An empty level means the whole language partition.
func ValidateScope(lang, level string) error {
	if lang == "" {
		return fmt.Errorf("language is required")
	}
	if level == "" {
		return nil
	}
	for _, system := range []language.LevelSystem{language.CEFR, language.HSK, language.JLPT} {
		if _, err := system.Index(level); err == nil {
			return nil
		}
	}
	return fmt.Errorf("level %q does not belong to any known level system", level)
}
