package generator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"app-deployer/internal/domain/entity"
)

const (
	defaultFallbackTitle = "LLM App"

	fallbackCSS = "body{font-family:system-ui,Segoe UI,Arial,sans-serif;margin:40px;background:#fafafa;color:#222}" +
		"#app{max-width:800px;margin:auto;padding:24px;border:1px solid #e5e5e5;border-radius:12px;background:#fff}h1{margin-top:0}"
	fallbackJS = "console.log('Fallback app initialized');"
)

// FallbackArtifact is a minimal static page that always passes Validate.
func FallbackArtifact(task string) entity.GeneratedArtifact {
	title := strings.TrimSpace(task)
	if title == "" {
		title = defaultFallbackTitle
	}
	escaped := html.EscapeString(title)

	page := fmt.Sprintf(`<!doctype html><html><head><meta charset="utf-8"><title>%s</title>`+
		`<link rel="stylesheet" href="styles.css"></head><body><div id="app"><h1>%s</h1>`+
		`<p>Your app was generated in fallback mode.</p><script src="script.js"></script></div></body></html>`,
		escaped, escaped)

	return entity.GeneratedArtifact{
		HTML: page,
		CSS:  fallbackCSS,
		JS:   fallbackJS,
		Metadata: map[string]any{
			entity.MetadataTitle: title,
			"description":        "Fallback generated application",
		},
		ExtraFiles: map[string]string{},
	}
}
