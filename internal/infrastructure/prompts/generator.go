package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"app-deployer/internal/domain/entity"
)

type AppPromptData struct {
	Task        string
	Brief       string
	Round       int
	Attachments string
}

// GenerateAppPrompt renders the initial prompt for round 1 and the revision
// prompt for later rounds.
func GenerateAppPrompt(req entity.TaskRequest) (string, error) {
	baseTemplate := InitialPrompt
	if req.IsRevision() {
		baseTemplate = RevisionPrompt
	}
	return GeneratePrompt(baseTemplate, req)
}

func GeneratePrompt(baseTemplate string, req entity.TaskRequest) (string, error) {
	data := AppPromptData{
		Task:  req.Task,
		Brief: req.Brief,
		Round: req.Round,
	}

	if len(req.Attachments) > 0 {
		raw, err := json.MarshalIndent(req.Attachments, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal attachments: %w", err)
		}
		data.Attachments = string(raw)
	}

	tmpl, err := template.New("app").Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()) + "\n", nil
}
