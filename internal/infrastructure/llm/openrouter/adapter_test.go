package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
	"app-deployer/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChatRequest_JSONMode(t *testing.T) {
	req := output.CompletionRequest{
		SystemInstruction: "You are a web developer",
		Prompt:            "Build a calculator",
		Temperature:       0.6,
		MaxTokens:         4000,
		JSONMode:          true,
	}

	result := buildChatRequest("default-model", req)

	assert.Equal(t, "default-model", result.Model)
	assert.Equal(t, 4000, result.MaxTokens)
	assert.InDelta(t, 0.6, result.Temperature, 0.0001)
	require.NotNil(t, result.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, result.ResponseFormat.Type)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "system", result.Messages[0].Role)
	assert.Equal(t, "user", result.Messages[1].Role)
	assert.Equal(t, "Build a calculator", result.Messages[1].Content)
}

func TestBuildChatRequest_ModelOverrideWithoutSystem(t *testing.T) {
	result := buildChatRequest("default-model", output.CompletionRequest{Prompt: "hi", Model: "other"})

	assert.Equal(t, "other", result.Model)
	assert.Nil(t, result.ResponseFormat)
	assert.Len(t, result.Messages, 1)
}

func TestConvertMessages(t *testing.T) {
	result := convertMessages([]entity.Message{
		{Role: entity.RoleUser, Content: "Hello"},
		{Role: entity.RoleAssistant, Content: "Hi there"},
	})

	assert.Len(t, result, 2)
	assert.Equal(t, "user", result[0].Role)
	assert.Equal(t, "assistant", result[1].Role)
	assert.Equal(t, "Hi there", result[1].Content)
}

func TestComplete_AgainstServer(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "served-model",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "  {\"html_content\":\"<html></html>\"}  "},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key", "test-model")
	cfg.BaseURL = server.URL
	cfg.Logger = logger.NewNop()
	adapter := NewOpenRouterAdapter(cfg)

	resp, err := adapter.Complete(context.Background(), output.CompletionRequest{Prompt: "Build", JSONMode: true})
	require.NoError(t, err)

	assert.Equal(t, `{"html_content":"<html></html>"}`, resp.Content)
	assert.Equal(t, "served-model", resp.Model)
	assert.Equal(t, "test-model", got.Model)
	require.NotNil(t, got.ResponseFormat)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig("k", "m")
	cfg.BaseURL = server.URL
	_, err := NewOpenRouterAdapter(cfg).Complete(context.Background(), output.CompletionRequest{Prompt: "x"})

	assert.Error(t, err)
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer server.Close()

	cfg := DefaultConfig("k", "m")
	cfg.BaseURL = server.URL
	_, err := NewOpenRouterAdapter(cfg).Complete(context.Background(), output.CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}
