package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig controls log output and verbosity.
type LogConfig struct {
	Level string `yaml:"level"` // logrus level name, defaults to "info".
	File  string `yaml:"file"`  // Optional rotating log file path.
}

// ModelConfig holds per-endpoint model defaults and optional allowlists.
type ModelConfig struct {
	Default string   `yaml:"default"` // Model used when the request omits one.
	Allowed []string `yaml:"allowed"` // When non-empty, the only accepted model ids.
}

// Config holds all runtime configuration for the console service.
type Config struct {
	Listen string `yaml:"listen"` // HTTP listen address, defaults to ":8080".

	DatabaseURL string `yaml:"database_url"` // GORM DSN (postgres or sqlite).
	RedisURL    string `yaml:"redis_url"`    // Redis URL for anonymous counters.

	LLMBaseURL string `yaml:"llm_base_url"` // Upstream OpenAI-compatible base URL.
	LLMAPIKey  string `yaml:"llm_api_key"`  // Upstream bearer API key.

	SessionSecret   string `yaml:"session_secret"`    // HS256 secret for session JWTs.
	AnonTokenSecret string `yaml:"anon_token_secret"` // HS256 secret for anonymous cookie tokens.

	Log LogConfig `yaml:"log"` // Logging configuration.

	ChatModel       ModelConfig `yaml:"chat_model"`       // Chat completion models.
	EmbeddingModel  ModelConfig `yaml:"embedding_model"`  // Embedding models.
	TranscribeModel ModelConfig `yaml:"transcribe_model"` // Transcription models.
}

// Default model ids applied when the config leaves them empty.
const (
	DefaultChatModel       = "llama-3.1-70b-instruct"
	DefaultEmbeddingModel  = "nomic-embed-text-v1.5"
	DefaultTranscribeModel = "whisper-large-v3"
)

// envOverrides maps environment variable names to config field setters.
var envOverrides = map[string]func(*Config, string){
	"LISTEN":            func(c *Config, v string) { c.Listen = v },
	"DATABASE_URL":      func(c *Config, v string) { c.DatabaseURL = v },
	"REDIS_URL":         func(c *Config, v string) { c.RedisURL = v },
	"LLM_BASE_URL":      func(c *Config, v string) { c.LLMBaseURL = v },
	"LLM_API_KEY":       func(c *Config, v string) { c.LLMAPIKey = v },
	"SESSION_SECRET":    func(c *Config, v string) { c.SessionSecret = v },
	"ANON_TOKEN_SECRET": func(c *Config, v string) { c.AnonTokenSecret = v },
	"LOG_LEVEL":         func(c *Config, v string) { c.Log.Level = v },
	"LOG_FILE":          func(c *Config, v string) { c.Log.File = v },
}

// Load reads configuration from an optional YAML file and applies
// environment variable overrides on top.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
			}
		} else if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	for key, apply := range envOverrides {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			apply(&cfg, strings.TrimSpace(value))
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills optional fields with their defaults.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = ":8080"
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if strings.TrimSpace(c.ChatModel.Default) == "" {
		c.ChatModel.Default = DefaultChatModel
	}
	if strings.TrimSpace(c.EmbeddingModel.Default) == "" {
		c.EmbeddingModel.Default = DefaultEmbeddingModel
	}
	if strings.TrimSpace(c.TranscribeModel.Default) == "" {
		c.TranscribeModel.Default = DefaultTranscribeModel
	}
}

// Validate checks required fields and reports every problem at once so a
// misconfigured process fails fast with the full list.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "database_url (DATABASE_URL) is required")
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		problems = append(problems, "redis_url (REDIS_URL) is required")
	}
	if strings.TrimSpace(c.LLMBaseURL) == "" {
		problems = append(problems, "llm_base_url (LLM_BASE_URL) is required")
	} else if _, errParse := url.ParseRequestURI(c.LLMBaseURL); errParse != nil {
		problems = append(problems, "llm_base_url (LLM_BASE_URL) must be a valid URL")
	}
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		problems = append(problems, "llm_api_key (LLM_API_KEY) is required")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		problems = append(problems, "session_secret (SESSION_SECRET) is required")
	}
	if strings.TrimSpace(c.AnonTokenSecret) == "" {
		problems = append(problems, "anon_token_secret (ANON_TOKEN_SECRET) is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Allows reports whether a model id passes the allowlist. An empty
// allowlist accepts any id.
func (m ModelConfig) Allows(model string) bool {
	if len(m.Allowed) == 0 {
		return true
	}
	for _, allowed := range m.Allowed {
		if allowed == model {
			return true
		}
	}
	return false
}

// Resolve returns the requested model id or the configured default when empty.
func (m ModelConfig) Resolve(model string) string {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return m.Default
	}
	return trimmed
}
