package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
	"app-deployer/internal/infrastructure/logger"
)

type fakeBackend struct {
	content string
	err     error
	calls   int
	last    output.CompletionRequest
}

func (f *fakeBackend) Complete(ctx context.Context, req output.CompletionRequest) (*output.CompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &output.CompletionResponse{Content: f.content}, nil
}

const validCompletion = `{"html_content":"<!doctype html><html><head></head><body>hi</body></html>","css_content":"body{}","js_content":"console.log(1)","metadata":{"title":"Calc","description":"A calculator"}}`

func newTestGenerator(backend output.GenerationBackend) *Generator {
	return New(backend, DefaultBuilders(), logger.NewNop(), DefaultConfig("test-model"))
}

func TestGenerate_KeywordSelectsDeterministicBuilder(t *testing.T) {
	backend := &fakeBackend{content: validCompletion}
	g := newTestGenerator(backend)

	csv := "product,sales,region\nA,10,EU\n"
	req := entity.TaskRequest{
		Task:  "sales-app",
		Brief: "Publish a Sum-of-Sales page",
		Round: 1,
		Attachments: []entity.Attachment{
			{Name: "data.csv", URL: "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(csv))},
		},
	}

	outcome := g.Generate(context.Background(), req)

	if outcome.UsedFallback() {
		t.Fatalf("Expected builder artifact, got fallback: %v", outcome.Reason)
	}
	if backend.calls != 0 {
		t.Errorf("Generative backend must not be called, got %d calls", backend.calls)
	}
	if outcome.Artifact.Title() != "Sales Summary" {
		t.Errorf("Expected title 'Sales Summary', got %q", outcome.Artifact.Title())
	}
	if outcome.Artifact.ExtraFiles["data.csv"] != csv {
		t.Errorf("Expected data.csv to be shipped, got %q", outcome.Artifact.ExtraFiles["data.csv"])
	}
}

func TestGenerate_MarkdownAndGithubBuilders(t *testing.T) {
	g := newTestGenerator(nil)

	md := g.Generate(context.Background(), entity.TaskRequest{
		Task:        "md",
		Brief:       "markdown-to-html converter",
		Round:       1,
		Attachments: []entity.Attachment{{Name: "input.md", URL: "data:text/markdown,%23%20Hello"}},
	})
	if md.UsedFallback() || md.Artifact.Title() != "Markdown Viewer" {
		t.Fatalf("Expected markdown viewer, got %+v", md)
	}
	if md.Artifact.ExtraFiles["input.md"] != "# Hello" {
		t.Errorf("Expected decoded markdown attachment, got %q", md.Artifact.ExtraFiles["input.md"])
	}

	gh := g.Generate(context.Background(), entity.TaskRequest{
		Task:  "gh",
		Brief: "github-user-created lookup, seed: abc123",
		Round: 1,
	})
	if gh.UsedFallback() || gh.Artifact.Title() != "GitHub User Info" {
		t.Fatalf("Expected github user page, got %+v", gh)
	}
	if !strings.Contains(gh.Artifact.HTML, `id="github-user-abc123"`) {
		t.Error("Expected the seed to parameterize the form id")
	}
}

func TestGenerate_UsesBackendWhenNoKeyword(t *testing.T) {
	backend := &fakeBackend{content: "```json\n" + validCompletion + "\n```"}
	g := newTestGenerator(backend)

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "calc", Brief: "a calculator", Round: 1})

	if outcome.UsedFallback() {
		t.Fatalf("Expected generated artifact, got fallback: %v", outcome.Reason)
	}
	if backend.calls != 1 {
		t.Errorf("Expected exactly one completion call, got %d", backend.calls)
	}
	if !backend.last.JSONMode || backend.last.Temperature != 0.6 || backend.last.MaxTokens != 4000 {
		t.Errorf("Unexpected completion request: %+v", backend.last)
	}
	if !strings.Contains(backend.last.Prompt, "Create a complete") {
		t.Error("Round 1 should send the initial prompt")
	}
	if outcome.Artifact.Title() != "Calc" {
		t.Errorf("Expected title from metadata, got %q", outcome.Artifact.Title())
	}
}

func TestGenerate_RevisionPrompt(t *testing.T) {
	backend := &fakeBackend{content: validCompletion}
	g := newTestGenerator(backend)

	g.Generate(context.Background(), entity.TaskRequest{Task: "calc", Brief: "improve it", Round: 2})

	if !strings.Contains(backend.last.Prompt, "Revise the previous app") {
		t.Errorf("Round 2 should send the revision prompt, got:\n%s", backend.last.Prompt)
	}
}

func TestGenerate_MissingTitleFilledFromTask(t *testing.T) {
	backend := &fakeBackend{content: `{"html_content":"<html><style></style><script></script></html>","css_content":"","js_content":"","metadata":{}}`}
	g := newTestGenerator(backend)

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "todo list", Brief: "todos", Round: 1})

	if outcome.UsedFallback() {
		t.Fatalf("Unexpected fallback: %v", outcome.Reason)
	}
	if outcome.Artifact.Title() != "todo list" {
		t.Errorf("Expected title from task, got %q", outcome.Artifact.Title())
	}
}

func TestGenerate_FallbackOnEmptyHTML(t *testing.T) {
	backend := &fakeBackend{content: `{"html_content":"","css_content":"a{}","js_content":"x()","metadata":{"title":"t"}}`}
	g := newTestGenerator(backend)

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "Broken", Brief: "anything", Round: 1})

	if !outcome.UsedFallback() {
		t.Fatal("Expected fallback artifact for empty html")
	}
	if !errors.Is(outcome.Reason, entity.ErrInvalidArtifact) {
		t.Errorf("Expected ErrInvalidArtifact, got %v", outcome.Reason)
	}
	if outcome.Artifact.Title() != "Broken" {
		t.Errorf("Fallback should embed the task title, got %q", outcome.Artifact.Title())
	}
}

func TestGenerate_FallbackOnParseError(t *testing.T) {
	g := newTestGenerator(&fakeBackend{content: "I cannot help with that"})

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "x", Brief: "y", Round: 1})

	var genErr *entity.GenerationError
	if !outcome.UsedFallback() || !errors.As(outcome.Reason, &genErr) || genErr.Stage != "parse" {
		t.Fatalf("Expected parse GenerationError, got %v", outcome.Reason)
	}
}

func TestGenerate_FallbackOnBackendError(t *testing.T) {
	g := newTestGenerator(&fakeBackend{err: errors.New("503 upstream")})

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "x", Brief: "y", Round: 1})

	if !outcome.UsedFallback() {
		t.Fatal("Expected fallback on backend error")
	}
	if err := Validate(outcome.Artifact); err != nil {
		t.Errorf("Fallback artifact must be valid: %v", err)
	}
}

func TestGenerate_NoStrategy(t *testing.T) {
	g := newTestGenerator(nil)

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "x", Brief: "a weather widget", Round: 1})

	if !outcome.UsedFallback() || !errors.Is(outcome.Reason, entity.ErrNoStrategy) {
		t.Fatalf("Expected ErrNoStrategy fallback, got %v", outcome.Reason)
	}
}

func TestGenerate_BrokenBuilderFallsThroughToBackend(t *testing.T) {
	backend := &fakeBackend{content: validCompletion}
	broken := []Builder{{
		Name:     "broken",
		Keywords: []string{"sales"},
		Build: func(entity.TaskRequest, map[string]string) (entity.GeneratedArtifact, error) {
			return entity.GeneratedArtifact{}, errors.New("boom")
		},
	}}
	g := New(backend, broken, logger.NewNop(), DefaultConfig("m"))

	outcome := g.Generate(context.Background(), entity.TaskRequest{Task: "x", Brief: "sales", Round: 1})

	if outcome.UsedFallback() || backend.calls != 1 {
		t.Fatalf("Expected backend to take over, fallback=%v calls=%d", outcome.UsedFallback(), backend.calls)
	}
}
