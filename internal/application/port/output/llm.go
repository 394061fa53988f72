package output

import (
	"context"

	"app-deployer/internal/domain/entity"
)

// GenerationBackend is a completion service able to return structured text.
type GenerationBackend interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

type CompletionRequest struct {
	SystemInstruction string
	Prompt            string
	Model             string
	Temperature       float32
	MaxTokens         int
	JSONMode          bool
}

func (r CompletionRequest) Messages() []entity.Message {
	messages := make([]entity.Message, 0, 2)
	if r.SystemInstruction != "" {
		messages = append(messages, entity.Message{Role: entity.RoleSystem, Content: r.SystemInstruction})
	}
	return append(messages, entity.Message{Role: entity.RoleUser, Content: r.Prompt})
}

type CompletionResponse struct {
	Content string
	Model   string
}
