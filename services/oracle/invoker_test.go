package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*providers.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func oracleConfig() config.OracleConfig {
	return config.OracleConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0,
		MaxTokens:   256,
		Timeout:     time.Second,
		JSONMode:    true,
	}
}

func TestProviderInvoker_Invoke(t *testing.T) {
	provider := new(MockProvider)
	provider.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req *providers.ChatRequest) bool {
		return req.Model == "gpt-4o-mini" &&
			req.MaxTokens == 256 &&
			req.JSONMode &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.Messages[0].Content == "classify this"
	})).Return(&providers.ChatResponse{
		Provider: "mock",
		Choices:  []providers.Choice{{Message: providers.Message{Role: "assistant", Content: `{"decision":"SAFE","reason":"ok"}`}}},
	}, nil)

	invoker := NewProviderInvoker(provider, oracleConfig(), zap.NewNop())
	out, err := invoker.Invoke(context.Background(), "classify this")

	require.NoError(t, err)
	assert.Equal(t, `{"decision":"SAFE","reason":"ok"}`, out)
	provider.AssertExpectations(t)
}

func TestProviderInvoker_AppliesTimeout(t *testing.T) {
	provider := new(MockProvider)
	provider.On("ChatCompletion", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(nil, context.DeadlineExceeded)

	invoker := NewProviderInvoker(provider, oracleConfig(), zap.NewNop())
	_, err := invoker.Invoke(context.Background(), "p")

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	provider.AssertExpectations(t)
}

func TestProviderInvoker_EmptyChoices(t *testing.T) {
	provider := new(MockProvider)
	provider.On("ChatCompletion", mock.Anything, mock.Anything).Return(&providers.ChatResponse{}, nil)

	invoker := NewProviderInvoker(provider, oracleConfig(), zap.NewNop())
	_, err := invoker.Invoke(context.Background(), "p")

	assert.True(t, errors.Is(err, providers.ErrEmptyResponse))
}
