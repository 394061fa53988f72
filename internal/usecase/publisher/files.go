package publisher

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"app-deployer/internal/domain/entity"
)

const (
	defaultReadmeTitle       = "LLM Generated Application"
	defaultReadmeDescription = "A web application generated by LLM Code Deployment system"
	defaultRepoDescription   = "LLM Generated Web Application"
)

// AssembleFiles builds the ordered file set committed for an artifact.
func AssembleFiles(a entity.GeneratedArtifact, now time.Time) []entity.FileEntry {
	files := []entity.FileEntry{{Path: "index.html", Content: a.HTML}}
	if strings.TrimSpace(a.CSS) != "" {
		files = append(files, entity.FileEntry{Path: "styles.css", Content: a.CSS})
	}
	if strings.TrimSpace(a.JS) != "" {
		files = append(files, entity.FileEntry{Path: "script.js", Content: a.JS})
	}
	files = append(files,
		entity.FileEntry{Path: "README.md", Content: readme(a, now)},
		entity.FileEntry{Path: "LICENSE", Content: license(now)},
	)

	names := make([]string, 0, len(a.ExtraFiles))
	for name := range a.ExtraFiles {
		if isSafePath(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		files = upsertEntry(files, entity.FileEntry{Path: path.Clean(name), Content: a.ExtraFiles[name]})
	}
	return files
}

func upsertEntry(files []entity.FileEntry, e entity.FileEntry) []entity.FileEntry {
	for i := range files {
		if files[i].Path == e.Path {
			files[i] = e
			return files
		}
	}
	return append(files, e)
}

func isSafePath(name string) bool {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "\\") {
		return false
	}
	clean := path.Clean(name)
	return !path.IsAbs(clean) && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

func repoDescription(a entity.GeneratedArtifact) string {
	if d := a.Description(); d != "" {
		return d
	}
	return defaultRepoDescription
}

func readme(a entity.GeneratedArtifact, now time.Time) string {
	title := a.Title()
	if title == "" {
		title = defaultReadmeTitle
	}
	description := a.Description()
	if description == "" {
		description = defaultReadmeDescription
	}

	return fmt.Sprintf(`# %s

%s

## About

Automatically generated by LLM Code Deployment.

## Usage

Open `+"`index.html`"+` in your browser to run the app.

## Files

- `+"`index.html`"+` - main HTML
- `+"`styles.css`"+` - CSS (optional)
- `+"`script.js`"+` - JS (optional)

Generated on %s
`, title, description, now.UTC().Format("2006-01-02 15:04:05 UTC"))
}

func license(now time.Time) string {
	return fmt.Sprintf(`MIT License

Copyright (c) %d LLM Code Deployment

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`, now.Year())
}
