package generator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"app-deployer/internal/domain/entity"
)

type markupFeatures struct {
	root    bool
	styling bool
	script  bool
}

func scanMarkup(doc string) markupFeatures {
	var f markupFeatures
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a tokenizer error; either way the scan is over.
			return f
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tok := z.Token()
		switch tok.Data {
		case "html":
			f.root = true
		case "style":
			f.styling = true
		case "script":
			f.script = true
		case "link":
			if isStylesheetLink(tok.Attr) {
				f.styling = true
			}
		}
		for _, attr := range tok.Attr {
			if attr.Key == "style" {
				f.styling = true
			}
		}
	}
}

func isStylesheetLink(attrs []html.Attribute) bool {
	for _, attr := range attrs {
		if attr.Key == "rel" && strings.Contains(strings.ToLower(attr.Val), "stylesheet") {
			return true
		}
	}
	return false
}

// Validate reports why an artifact cannot be published, or nil if it can.
func Validate(a entity.GeneratedArtifact) error {
	if strings.TrimSpace(a.HTML) == "" {
		return fmt.Errorf("%w: empty html", entity.ErrInvalidArtifact)
	}

	f := scanMarkup(a.HTML)
	if !f.root {
		return fmt.Errorf("%w: missing <html> root element", entity.ErrInvalidArtifact)
	}
	if strings.TrimSpace(a.CSS) == "" && !f.styling {
		return fmt.Errorf("%w: no css and no embedded styling", entity.ErrInvalidArtifact)
	}
	if strings.TrimSpace(a.JS) == "" && !f.script {
		return fmt.Errorf("%w: no js and no embedded scripting", entity.ErrInvalidArtifact)
	}
	return nil
}
