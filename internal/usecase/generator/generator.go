package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
	"app-deployer/internal/infrastructure/prompts"
)

const (
	defaultTemperature = 0.6
	defaultMaxTokens   = 4000
	defaultTimeout     = 2 * time.Minute
)

type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func DefaultConfig(model string) Config {
	return Config{
		Model:       model,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Timeout:     defaultTimeout,
	}
}

type Generator struct {
	backend  output.GenerationBackend
	builders []Builder
	logger   output.LoggerPort
	cfg      Config
}

// New wires a generator. backend may be nil, in which case only the
// deterministic builders are available.
func New(backend output.GenerationBackend, builders []Builder, logger output.LoggerPort, cfg Config) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Generator{
		backend:  backend,
		builders: builders,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate never fails: any strategy or validation failure is replaced by
// the fallback artifact and reported through the outcome.
func (g *Generator) Generate(ctx context.Context, req entity.TaskRequest) entity.GenerationOutcome {
	artifact, err := g.produce(ctx, req)
	if err != nil {
		g.logger.Warn("Generation failed, using fallback artifact", "task", req.Task, "error", err)
		return entity.FallbackOutcome(FallbackArtifact(req.Task), err)
	}

	if err := Validate(artifact); err != nil {
		g.logger.Warn("Generated artifact rejected, using fallback artifact", "task", req.Task, "error", err)
		return entity.FallbackOutcome(FallbackArtifact(req.Task), err)
	}

	g.logger.Info("Artifact generated", "task", req.Task, "title", artifact.Title(), "extraFiles", len(artifact.ExtraFiles))
	return entity.Generated(artifact)
}

func (g *Generator) produce(ctx context.Context, req entity.TaskRequest) (entity.GeneratedArtifact, error) {
	if b, ok := matchBuilder(g.builders, req.Brief); ok {
		artifact, err := b.Build(req, CollectAttachments(req.Attachments))
		if err == nil {
			g.logger.Debug("Deterministic builder selected", "builder", b.Name)
			return artifact, nil
		}
		g.logger.Error("Deterministic builder failed, trying generative backend", "builder", b.Name, "error", err)
	}

	if g.backend == nil {
		return entity.GeneratedArtifact{}, &entity.GenerationError{Stage: "strategy", Err: entity.ErrNoStrategy}
	}
	return g.complete(ctx, req)
}

func (g *Generator) complete(ctx context.Context, req entity.TaskRequest) (entity.GeneratedArtifact, error) {
	prompt, err := prompts.GenerateAppPrompt(req)
	if err != nil {
		return entity.GeneratedArtifact{}, &entity.GenerationError{Stage: "prompt", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	g.logger.Info("Generating app", "round", req.Round, "model", g.cfg.Model)
	resp, err := g.backend.Complete(ctx, output.CompletionRequest{
		SystemInstruction: prompts.SystemInstruction,
		Prompt:            prompt,
		Model:             g.cfg.Model,
		Temperature:       g.cfg.Temperature,
		MaxTokens:         g.cfg.MaxTokens,
		JSONMode:          true,
	})
	if err != nil {
		return entity.GeneratedArtifact{}, &entity.GenerationError{Stage: "completion", Err: err}
	}

	artifact, err := parseCompletion(resp.Content)
	if err != nil {
		return entity.GeneratedArtifact{}, &entity.GenerationError{Stage: "parse", Err: err}
	}

	if artifact.Title() == "" {
		artifact.Metadata[entity.MetadataTitle] = titleFor(req.Task)
	}
	return artifact, nil
}

type completionPayload struct {
	HTML     string         `json:"html_content"`
	CSS      string         `json:"css_content"`
	JS       string         `json:"js_content"`
	Metadata map[string]any `json:"metadata"`
}

// parseCompletion reads the outermost JSON object of a completion, which
// tolerates code fences and chatter around it.
func parseCompletion(content string) (entity.GeneratedArtifact, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return entity.GeneratedArtifact{}, errors.New("no JSON object in completion")
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return entity.GeneratedArtifact{}, fmt.Errorf("invalid JSON in completion: %w", err)
	}

	if payload.Metadata == nil {
		payload.Metadata = map[string]any{}
	}
	return entity.GeneratedArtifact{
		HTML:       payload.HTML,
		CSS:        payload.CSS,
		JS:         payload.JS,
		Metadata:   payload.Metadata,
		ExtraFiles: map[string]string{},
	}, nil
}

func titleFor(task string) string {
	if t := strings.TrimSpace(task); t != "" {
		return t
	}
	return defaultFallbackTitle
}
