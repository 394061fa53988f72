package generator

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"app-deployer/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var builderTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// BuildFunc maps a request and its decoded attachments to a fixed artifact.
type BuildFunc func(req entity.TaskRequest, files map[string]string) (entity.GeneratedArtifact, error)

type Builder struct {
	Name     string
	Keywords []string
	Build    BuildFunc
}

type templateData struct {
	Seed     string
	DataFile string
}

// DefaultBuilders are checked in order; the first keyword hit wins.
func DefaultBuilders() []Builder {
	return []Builder{
		{
			Name:     "sum-of-sales",
			Keywords: []string{"sum-of-sales", "sales"},
			Build:    attachmentPage("sales.html", "Sales Summary", "data.csv"),
		},
		{
			Name:     "markdown-to-html",
			Keywords: []string{"markdown-to-html", "markdown"},
			Build:    attachmentPage("markdown.html", "Markdown Viewer", "input.md"),
		},
		{
			Name:     "github-user-created",
			Keywords: []string{"github-user"},
			Build:    attachmentPage("github_user.html", "GitHub User Info", ""),
		},
	}
}

func matchBuilder(builders []Builder, brief string) (Builder, bool) {
	lower := strings.ToLower(brief)
	for _, b := range builders {
		for _, kw := range b.Keywords {
			if strings.Contains(lower, kw) {
				return b, true
			}
		}
	}
	return Builder{}, false
}

func attachmentPage(templateName, title, dataFile string) BuildFunc {
	return func(req entity.TaskRequest, files map[string]string) (entity.GeneratedArtifact, error) {
		var buf bytes.Buffer
		data := templateData{Seed: seedFor(req), DataFile: dataFile}
		if err := builderTemplates.ExecuteTemplate(&buf, templateName, data); err != nil {
			return entity.GeneratedArtifact{}, fmt.Errorf("render %s: %w", templateName, err)
		}

		extra := map[string]string{}
		if dataFile != "" && files[dataFile] != "" {
			extra[dataFile] = files[dataFile]
		}

		return entity.GeneratedArtifact{
			HTML:       buf.String(),
			Metadata:   map[string]any{entity.MetadataTitle: title},
			ExtraFiles: extra,
		}, nil
	}
}

var (
	seedPattern   = regexp.MustCompile(`(?i)\bseed\s*[:=]?\s*([A-Za-z0-9_-]+)`)
	unsafeSeedRun = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// seedFor picks the seed a brief asks for, falling back to the request nonce.
func seedFor(req entity.TaskRequest) string {
	if m := seedPattern.FindStringSubmatch(req.Brief); m != nil {
		return m[1]
	}
	if s := unsafeSeedRun.ReplaceAllString(req.Nonce, ""); s != "" {
		return s
	}
	return "default"
}
