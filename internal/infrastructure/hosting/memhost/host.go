// Package memhost is an in-process hosting provider. It follows the same
// naming and precondition rules as the GitHub adapter and is used for dry
// runs and as a test double with failure injection.
package memhost

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

var _ output.HostingPort = (*Host)(nil)

var ErrPreconditionFailed = errors.New("precondition does not match stored version")

const (
	OpCreate       = "create"
	OpGetContainer = "get_container"
	OpGetFile      = "get_file"
	OpPutFile      = "put_file"
)

type storedFile struct {
	content string
	sha     string
}

type repo struct {
	container entity.Container
	files     map[string]storedFile
}

type failure struct {
	remaining int
	err       error
}

type Host struct {
	mu       sync.Mutex
	owner    string
	repos    map[string]*repo
	revision int
	calls    map[string]int
	failures map[string]*failure
}

func New(owner string) *Host {
	return &Host{
		owner:    owner,
		repos:    make(map[string]*repo),
		calls:    make(map[string]int),
		failures: make(map[string]*failure),
	}
}

func opKey(op, target string) string {
	return op + ":" + target
}

// FailNext makes the next n calls of op against target (a container name
// for OpCreate/OpGetContainer, a file path otherwise) return err.
func (h *Host) FailNext(op, target string, n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[opKey(op, target)] = &failure{remaining: n, err: err}
}

// FailAlways makes every call of op against target fail.
func (h *Host) FailAlways(op, target string, err error) {
	h.FailNext(op, target, -1, err)
}

// Calls reports how many times op was invoked against target.
func (h *Host) Calls(op, target string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[opKey(op, target)]
}

func (h *Host) record(op, target string) error {
	key := opKey(op, target)
	h.calls[key]++
	f, ok := h.failures[key]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

func (h *Host) CreateContainer(ctx context.Context, name, description string) (*entity.Container, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.record(OpCreate, name); err != nil {
		return nil, err
	}
	if _, exists := h.repos[name]; exists {
		return nil, fmt.Errorf("%w: %s", entity.ErrNameCollision, name)
	}

	r := &repo{
		container: entity.Container{
			Name:          name,
			URL:           fmt.Sprintf("https://github.com/%s/%s", h.owner, name),
			DefaultBranch: "main",
		},
		files: make(map[string]storedFile),
	}
	h.repos[name] = r
	c := r.container
	return &c, nil
}

func (h *Host) GetContainer(ctx context.Context, name string) (*entity.Container, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.record(OpGetContainer, name); err != nil {
		return nil, err
	}
	r, ok := h.repos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrContainerNotFound, name)
	}
	c := r.container
	return &c, nil
}

func (h *Host) GetFile(ctx context.Context, container, path, branch string) (*entity.RemoteFile, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.record(OpGetFile, path); err != nil {
		return nil, false, err
	}
	r, ok := h.repos[container]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", entity.ErrContainerNotFound, container)
	}
	f, ok := r.files[path]
	if !ok {
		return nil, false, nil
	}
	return &entity.RemoteFile{Path: path, Content: f.content, Precondition: f.sha}, true, nil
}

func (h *Host) PutFile(ctx context.Context, container string, req output.PutFileRequest) (*output.PutFileResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.record(OpPutFile, req.Path); err != nil {
		return nil, err
	}
	r, ok := h.repos[container]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrContainerNotFound, container)
	}

	current, exists := r.files[req.Path]
	switch {
	case req.Precondition == "" && exists:
		return nil, fmt.Errorf("%w: %s already exists", ErrPreconditionFailed, req.Path)
	case req.Precondition != "" && (!exists || current.sha != req.Precondition):
		return nil, fmt.Errorf("%w: %s", ErrPreconditionFailed, req.Path)
	}

	sum := sha1.Sum([]byte(req.Content))
	r.files[req.Path] = storedFile{content: req.Content, sha: hex.EncodeToString(sum[:])}

	h.revision++
	rev := sha1.Sum([]byte(fmt.Sprintf("%s/%s#%d", container, req.Path, h.revision)))
	return &output.PutFileResult{RevisionID: hex.EncodeToString(rev[:])}, nil
}

func (h *Host) PublicURL(container string) string {
	return fmt.Sprintf("https://%s.github.io/%s", h.owner, container)
}

// Files returns a snapshot of a container's paths and contents.
func (h *Host) Files(container string) map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := map[string]string{}
	if r, ok := h.repos[container]; ok {
		for p, f := range r.files {
			out[p] = f.content
		}
	}
	return out
}

func (h *Host) Containers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.repos))
	for name := range h.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
