package embedding

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	client, err := NewClient("sk-test")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Client() == nil {
		t.Error("expected non-nil underlying client")
	}
}

func TestNewEmbedder_Defaults(t *testing.T) {
	client, err := NewClient("sk-test")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	e := NewEmbedder(client, "", 0, 0)
	if e.model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, e.model)
	}
	if e.batchSize != DefaultBatchSize {
		t.Errorf("expected batch size %d, got %d", DefaultBatchSize, e.batchSize)
	}
	if e.timeout <= 0 {
		t.Errorf("expected positive timeout, got %s", e.timeout)
	}
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   bool
	}{
		{"rate limit", 429, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"not found", 404, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &openai.Error{StatusCode: tc.status}
			if got := isRetryableError(err); got != tc.want {
				t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, got)
			}
		})
	}

	if isRetryableError(errors.New("plain error")) {
		t.Error("plain error should not be retryable")
	}
}

func TestToFloat32(t *testing.T) {
	got := toFloat32([]float64{0.5, -1.25, 0})
	want := []float32{0.5, -1.25, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}
