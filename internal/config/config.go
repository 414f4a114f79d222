// Package config centralizes configuration for the question-answering pipeline.
// Values are read from environment variables with validation and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the pipeline configuration.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 7
	DefaultChatModel      = "gpt-4o-mini-2024-07-18"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTemperature    = 0.7
	DefaultRequestTimeout = 30 * time.Second
)

// ErrMissingAPIKey indicates no OpenAI credential was provided.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// Config holds all tunables for ingestion and question answering.
// The API key is set once per session and never rotated.
type Config struct {
	APIKey string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		ChunkSize:      getEnvInt("DOCQA_CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:   getEnvInt("DOCQA_CHUNK_OVERLAP", DefaultChunkOverlap),
		TopK:           getEnvInt("DOCQA_TOP_K", DefaultTopK),
		ChatModel:      getEnv("DOCQA_CHAT_MODEL", DefaultChatModel),
		EmbeddingModel: getEnv("DOCQA_EMBEDDING_MODEL", DefaultEmbeddingModel),
		Temperature:    getEnvFloat("DOCQA_TEMPERATURE", DefaultTemperature),
		RequestTimeout: getEnvDuration("DOCQA_REQUEST_TIMEOUT", DefaultRequestTimeout),
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations that would fail after external calls started.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DOCQA_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("DOCQA_CHUNK_OVERLAP must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("DOCQA_CHUNK_OVERLAP (%d) must be smaller than DOCQA_CHUNK_SIZE (%d)",
			c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("DOCQA_TOP_K must be positive, got %d", c.TopK)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("DOCQA_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("DOCQA_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
