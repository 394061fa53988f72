package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"app-deployer/internal/domain/entity"
)

// LocalWriter stores file sets under <root>/<resource name>/.
type LocalWriter struct {
	root string
}

func NewLocalWriter(root string) *LocalWriter {
	if root == "" {
		root = "out"
	}
	return &LocalWriter{root: root}
}

type LocalEntry struct {
	Dir      string
	EntryURL string
	Digest   string
}

func (w *LocalWriter) Write(name string, files []entity.FileEntry) (*LocalEntry, error) {
	dir, err := filepath.Abs(filepath.Join(w.root, name))
	if err != nil {
		return nil, &entity.LocalWriteError{Path: name, Err: err}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &entity.LocalWriteError{Path: dir, Err: err}
	}

	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := writeFileAtomic(target, f.Content); err != nil {
			return nil, &entity.LocalWriteError{Path: target, Err: err}
		}
	}

	entry := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(dir, "index.html"))}
	return &LocalEntry{
		Dir:      dir,
		EntryURL: entry.String(),
		Digest:   digest(files),
	}, nil
}

// writeFileAtomic writes through a temp file and renames it into place.
func writeFileAtomic(target, content string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(tmp.Name(), target)
}

func digest(files []entity.FileEntry) string {
	sorted := append([]entity.FileEntry(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha256.New()
	for _, f := range sorted {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write([]byte(f.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
