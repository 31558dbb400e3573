package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Analysis providers
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Gemini   GeminiConfig
	Groq     GroqConfig
	Storage  StorageConfig
	Session  SessionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	// BodyLimit caps request bodies; it must leave room for a full audio upload
	BodyLimit string `envconfig:"BODY_LIMIT" default:"60M"`
}

// AnalysisConfig holds analysis client configuration
type AnalysisConfig struct {
	Provider             string        `envconfig:"ANALYSIS_PROVIDER" default:"gemini"`
	MaxRetries           int           `envconfig:"ANALYSIS_MAX_RETRIES" default:"0"`
	RetryInitialInterval time.Duration `envconfig:"ANALYSIS_RETRY_INITIAL_INTERVAL" default:"2s"`
	RetryMaxInterval     time.Duration `envconfig:"ANALYSIS_RETRY_MAX_INTERVAL" default:"10s"`
	MaxAudioBytes        int64         `envconfig:"MAX_AUDIO_BYTES" default:"52428800"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	Model   string `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// GroqConfig holds Groq API configuration
type GroqConfig struct {
	APIKey  string        `envconfig:"GROQ_API_KEY"`
	BaseURL string        `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model   string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	Timeout time.Duration `envconfig:"GROQ_TIMEOUT" default:"120s"`
}

// StorageConfig holds storage configuration for analysis exports
type StorageConfig struct {
	Enabled         bool          `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string        `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"STORAGE_BUCKET" default:"lumina"`
	UseSSL          bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string        `envconfig:"STORAGE_PUBLIC_URL"`
	PresignExpiry   time.Duration `envconfig:"STORAGE_PRESIGN_EXPIRY" default:"1h"`
}

// SessionConfig holds in-memory session registry configuration
type SessionConfig struct {
	TTL             time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	CleanupInterval time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"5m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.Analysis.Provider = strings.ToLower(strings.TrimSpace(config.Analysis.Provider))

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Analysis.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when ANALYSIS_PROVIDER=gemini")
		}
	case ProviderGroq:
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required when ANALYSIS_PROVIDER=groq")
		}
	default:
		return fmt.Errorf("unsupported ANALYSIS_PROVIDER %q (expected gemini or groq)", c.Analysis.Provider)
	}

	if c.Analysis.MaxRetries < 0 {
		return fmt.Errorf("ANALYSIS_MAX_RETRIES must not be negative")
	}
	if c.Analysis.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Storage.Enabled && (c.Storage.Endpoint == "" || c.Storage.BucketName == "") {
		return fmt.Errorf("STORAGE_ENDPOINT and STORAGE_BUCKET are required when STORAGE_ENABLED=true")
	}
	return nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
