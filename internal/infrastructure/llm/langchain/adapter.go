// Package langchain serves completions through langchaingo's OpenAI-compatible
// client. It is selected with LLM_PROVIDER=langchain.
package langchain

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

var _ output.GenerationBackend = (*Adapter)(nil)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Adapter struct {
	model     llms.Model
	modelName string
	logger    output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) (*Adapter, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewWithModel(llm, cfg.Model, logger), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, modelName string, logger output.LoggerPort) *Adapter {
	return &Adapter{model: model, modelName: modelName, logger: logger}
}

func (a *Adapter) Complete(ctx context.Context, req output.CompletionRequest) (*output.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = a.modelName
	}

	callOpts := []llms.CallOption{llms.WithModel(model)}
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(req.Temperature)))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	a.logger.Debug("Generating content via langchain", "model", model, "promptChars", len(req.Prompt))

	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages()), callOpts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return nil, fmt.Errorf("empty completion (stop reason %q)", resp.Choices[0].StopReason)
	}
	return &output.CompletionResponse{Content: content, Model: model}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		result = append(result, llms.TextParts(messageType(msg.Role), msg.Content))
	}
	return result
}

func messageType(role entity.MessageRole) schema.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return schema.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
