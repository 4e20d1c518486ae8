package providers

import (
	"errors"
	"fmt"
	"testing"
)

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("openai", "HTTP_ERROR", "HTTP request failed", 0, true, cause)

	if err.Error() != "HTTP request failed: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected ProviderError to unwrap to its cause")
	}

	noCause := NewProviderError("openai", "rate_limit", "slow down", 429, true, nil)
	if noCause.Error() != "slow down" {
		t.Errorf("Error() = %q, want %q", noCause.Error(), "slow down")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable provider error", NewProviderError("openai", "server_error", "boom", 503, true, nil), true},
		{"non retryable provider error", NewProviderError("openai", "invalid_request_error", "bad", 400, false, nil), false},
		{"wrapped provider error", fmt.Errorf("oracle: %w", NewProviderError("openai", "x", "y", 500, true, nil)), true},
		{"plain error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChatResponse_Content(t *testing.T) {
	resp := &ChatResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "hi"}}}}
	got, err := resp.Content()
	if err != nil || got != "hi" {
		t.Errorf("Content() = %q, %v", got, err)
	}

	if _, err := (&ChatResponse{}).Content(); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}

	var nilResp *ChatResponse
	if _, err := nilResp.Content(); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse for nil response, got %v", err)
	}
}

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()
	if cfg.Timeout <= 0 || cfg.MaxRetries < 0 || cfg.Headers == nil {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
