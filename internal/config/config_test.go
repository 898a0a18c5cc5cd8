package config

import (
	"errors"
	"testing"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	return &Config{
		Addr:              "127.0.0.1:8000",
		KnowledgeDir:      "knowledge_base",
		ModelName:         DefaultModelName,
		EmbedderModel:     DefaultEmbedderModel,
		MemoryTokenLimit:  DefaultMemoryTokenLimit,
		RetrievalTopK:     DefaultRetrievalTopK,
		AskTimeoutSeconds: DefaultAskTimeoutSeconds,
		BaseURL:           "http://127.0.0.1:8000",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"zero token limit", func(c *Config) { c.MemoryTokenLimit = 0 }, ErrInvalidTokenLimit},
		{"negative token limit", func(c *Config) { c.MemoryTokenLimit = -1 }, ErrInvalidTokenLimit},
		{"excessive token limit", func(c *Config) { c.MemoryTokenLimit = MaxMemoryTokenLimit + 1 }, ErrInvalidTokenLimit},
		{"zero top-k", func(c *Config) { c.RetrievalTopK = 0 }, ErrInvalidTopK},
		{"excessive top-k", func(c *Config) { c.RetrievalTopK = MaxRetrievalTopK + 1 }, ErrInvalidTopK},
		{"zero ask timeout", func(c *Config) { c.AskTimeoutSeconds = 0 }, ErrInvalidAskTimeout},
		{"excessive ask timeout", func(c *Config) { c.AskTimeoutSeconds = MaxAskTimeoutSeconds + 1 }, ErrInvalidAskTimeout},
		{"empty knowledge dir", func(c *Config) { c.KnowledgeDir = "" }, ErrInvalidKnowledgeDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateServe_MissingAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")

	cfg := validConfig()
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidateServe_WithAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "test-key")

	cfg := validConfig()
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("expected serve config to validate, got %v", err)
	}
}
