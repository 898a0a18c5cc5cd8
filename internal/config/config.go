// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.zolve/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the required Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTokenLimit indicates the memory token limit is out of range.
	ErrInvalidTokenLimit = errors.New("invalid memory token limit")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidAskTimeout indicates the ask timeout is out of range.
	ErrInvalidAskTimeout = errors.New("invalid ask timeout")

	// ErrInvalidKnowledgeDir indicates the knowledge directory path is unusable.
	ErrInvalidKnowledgeDir = errors.New("invalid knowledge directory")
)

const (
	// DefaultModelName is the provider-qualified generation model.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the Gemini embedder used for the knowledge index.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultMemoryTokenLimit bounds per-session conversation memory.
	// Oldest turns are dropped first once the limit is exceeded.
	DefaultMemoryTokenLimit = 3000

	// MaxMemoryTokenLimit is the absolute maximum to prevent runaway context.
	MaxMemoryTokenLimit = 100000

	// DefaultRetrievalTopK is the number of knowledge fragments retrieved per turn.
	DefaultRetrievalTopK = 3

	// MaxRetrievalTopK is the upper bound for retrieval fan-out.
	MaxRetrievalTopK = 10

	// DefaultAskTimeoutSeconds bounds one full conversational turn
	// (condense + retrieve + generate) so a hung model call cannot
	// block a session indefinitely.
	DefaultAskTimeoutSeconds = 60

	// MaxAskTimeoutSeconds is the upper bound for the turn timeout.
	MaxAskTimeoutSeconds = 600
)

// apiKeyEnv is the environment variable holding the Gemini credential.
// It is read directly by the Genkit GoogleAI plugin, not via Viper;
// Validate only checks its presence.
const apiKeyEnv = "GEMINI_API_KEY"

// Config stores application configuration.
type Config struct {
	// Server
	Addr string `mapstructure:"addr" json:"addr"`

	// Knowledge base
	KnowledgeDir string `mapstructure:"knowledge_dir" json:"knowledge_dir"`

	// AI models
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Conversation memory and retrieval
	MemoryTokenLimit  int `mapstructure:"memory_token_limit" json:"memory_token_limit"`
	RetrievalTopK     int `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	AskTimeoutSeconds int `mapstructure:"ask_timeout_seconds" json:"ask_timeout_seconds"`

	// Client
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Observability (optional; empty endpoint disables trace export)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".zolve")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("addr", "127.0.0.1:8000")
	viper.SetDefault("knowledge_dir", "knowledge_base")

	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	viper.SetDefault("memory_token_limit", DefaultMemoryTokenLimit)
	viper.SetDefault("retrieval_top_k", DefaultRetrievalTopK)
	viper.SetDefault("ask_timeout_seconds", DefaultAskTimeoutSeconds)

	viper.SetDefault("base_url", "http://127.0.0.1:8000")

	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("service_name", "zolve-advisor")
}

// bindEnvVariables binds runtime override environment variables explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via Viper; Validate only
// checks its presence.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("addr", "ZOLVE_ADDR")
	mustBind("knowledge_dir", "ZOLVE_KNOWLEDGE_DIR")
	mustBind("model_name", "ZOLVE_MODEL_NAME")
	mustBind("embedder_model", "ZOLVE_EMBEDDER_MODEL")
	mustBind("memory_token_limit", "ZOLVE_MEMORY_TOKEN_LIMIT")
	mustBind("retrieval_top_k", "ZOLVE_RETRIEVAL_TOP_K")
	mustBind("ask_timeout_seconds", "ZOLVE_ASK_TIMEOUT_SECONDS")
	mustBind("base_url", "ZOLVE_BASE_URL")
	mustBind("otlp_endpoint", "ZOLVE_OTLP_ENDPOINT")
	mustBind("service_name", "ZOLVE_SERVICE_NAME")
}

// Validate checks configuration values shared by all commands.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}
	if c.MemoryTokenLimit <= 0 || c.MemoryTokenLimit > MaxMemoryTokenLimit {
		return fmt.Errorf("%w: %d (must be 1..%d)",
			ErrInvalidTokenLimit, c.MemoryTokenLimit, MaxMemoryTokenLimit)
	}
	if c.RetrievalTopK <= 0 || c.RetrievalTopK > MaxRetrievalTopK {
		return fmt.Errorf("%w: %d (must be 1..%d)",
			ErrInvalidTopK, c.RetrievalTopK, MaxRetrievalTopK)
	}
	if c.AskTimeoutSeconds <= 0 || c.AskTimeoutSeconds > MaxAskTimeoutSeconds {
		return fmt.Errorf("%w: %d (must be 1..%d)",
			ErrInvalidAskTimeout, c.AskTimeoutSeconds, MaxAskTimeoutSeconds)
	}
	if c.KnowledgeDir == "" {
		return fmt.Errorf("%w: knowledge directory is empty", ErrInvalidKnowledgeDir)
	}

	return nil
}

// ValidateServe checks serve-mode requirements on top of Validate.
// The server cannot start without the Gemini credential: index
// construction needs the embedder before any traffic is accepted.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if os.Getenv(apiKeyEnv) == "" {
		return fmt.Errorf("%w: %s environment variable not set", ErrMissingAPIKey, apiKeyEnv)
	}

	return nil
}
