package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize: expected %d, got %d", DefaultChunkSize, cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("ChunkOverlap: expected %d, got %d", DefaultChunkOverlap, cfg.ChunkOverlap)
	}
	if cfg.TopK != DefaultTopK {
		t.Errorf("TopK: expected %d, got %d", DefaultTopK, cfg.TopK)
	}
	if cfg.ChatModel != DefaultChatModel {
		t.Errorf("ChatModel: expected %q, got %q", DefaultChatModel, cfg.ChatModel)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout: expected %s, got %s", DefaultRequestTimeout, cfg.RequestTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DOCQA_CHUNK_SIZE", "500")
	t.Setenv("DOCQA_CHUNK_OVERLAP", "50")
	t.Setenv("DOCQA_TOP_K", "4")
	t.Setenv("DOCQA_TEMPERATURE", "0.2")
	t.Setenv("DOCQA_REQUEST_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize: expected 500, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 50 {
		t.Errorf("ChunkOverlap: expected 50, got %d", cfg.ChunkOverlap)
	}
	if cfg.TopK != 4 {
		t.Errorf("TopK: expected 4, got %d", cfg.TopK)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature: expected 0.2, got %f", cfg.Temperature)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout: expected 10s, got %s", cfg.RequestTimeout)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidate_OverlapNotSmallerThanSize(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"equal", 100, 100},
		{"larger", 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				APIKey:         "sk-test",
				ChunkSize:      tc.size,
				ChunkOverlap:   tc.overlap,
				TopK:           DefaultTopK,
				ChatModel:      DefaultChatModel,
				EmbeddingModel: DefaultEmbeddingModel,
				Temperature:    DefaultTemperature,
				RequestTimeout: DefaultRequestTimeout,
			}
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_TemperatureRange(t *testing.T) {
	cfg := &Config{
		APIKey:         "sk-test",
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopK:           DefaultTopK,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Temperature:    2.5,
		RequestTimeout: DefaultRequestTimeout,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for temperature 2.5, got nil")
	}
}
