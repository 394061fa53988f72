package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/infrastructure/logger"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	return m.response, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestComplete_PassesOptionsAndMessages(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: " {\"html_content\":\"x\"} "}},
	}}
	a := NewWithModel(model, "qwq", logger.NewNop())

	resp, err := a.Complete(context.Background(), output.CompletionRequest{
		SystemInstruction: "sys",
		Prompt:            "build",
		Temperature:       0.6,
		MaxTokens:         4000,
		JSONMode:          true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"html_content":"x"}`, resp.Content)
	assert.Equal(t, "qwq", resp.Model)

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)

	assert.Equal(t, "qwq", model.options.Model)
	assert.Equal(t, 4000, model.options.MaxTokens)
	assert.InDelta(t, 0.6, model.options.Temperature, 0.0001)
	assert.True(t, model.options.JSONMode)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"backend error", &fakeModel{err: errors.New("boom")}},
		{"no choices", &fakeModel{response: &llms.ContentResponse{}}},
		{"blank content", &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  "}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithModel(tt.model, "m", logger.NewNop()).Complete(context.Background(), output.CompletionRequest{Prompt: "x"})
			assert.Error(t, err)
		})
	}
}
