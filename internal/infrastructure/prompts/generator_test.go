package prompts

import (
	"strings"
	"testing"

	"app-deployer/internal/domain/entity"
)

func TestGenerateAppPrompt_Initial(t *testing.T) {
	prompt, err := GenerateAppPrompt(entity.TaskRequest{
		Task:  "calculator",
		Brief: "Build a calculator",
		Round: 1,
	})
	if err != nil {
		t.Fatalf("GenerateAppPrompt failed: %v", err)
	}

	if !strings.Contains(prompt, "Create a complete, minimal web app") {
		t.Error("Round 1 should use the initial prompt")
	}
	if !strings.Contains(prompt, "TASK: calculator") || !strings.Contains(prompt, "BRIEF: Build a calculator") {
		t.Errorf("Prompt should embed task and brief, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Attachments:") {
		t.Error("Attachments section should be omitted without attachments")
	}
}

func TestGenerateAppPrompt_Revision(t *testing.T) {
	prompt, err := GenerateAppPrompt(entity.TaskRequest{
		Task:  "calculator",
		Brief: "Add a clear button",
		Round: 3,
		Attachments: []entity.Attachment{
			{Name: "notes.txt", URL: "data:text/plain,hello"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateAppPrompt failed: %v", err)
	}

	if !strings.Contains(prompt, "Revise the previous app") {
		t.Error("Later rounds should use the revision prompt")
	}
	if !strings.Contains(prompt, "ROUND: 3") {
		t.Error("Revision prompt should carry the round")
	}
	if !strings.Contains(prompt, "Revision context:") || !strings.Contains(prompt, `"name": "notes.txt"`) {
		t.Errorf("Revision prompt should list attachments, got:\n%s", prompt)
	}
}

func TestGeneratePrompt_InvalidTemplate(t *testing.T) {
	_, err := GeneratePrompt(`Test {{.InvalidField}}`, entity.TaskRequest{Task: "x"})
	if err == nil {
		t.Error("Expected error for invalid template, got nil")
	}
}

func TestSystemInstructionNamesAllFields(t *testing.T) {
	for _, key := range []string{"html_content", "css_content", "js_content", "metadata"} {
		if !strings.Contains(SystemInstruction, key) {
			t.Errorf("System instruction should demand %q", key)
		}
	}
}
