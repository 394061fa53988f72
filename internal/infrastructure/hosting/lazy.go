// Package hosting holds hosting providers shared by the publisher.
package hosting

import (
	"context"
	"fmt"
	"sync"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

var _ output.HostingPort = (*Lazy)(nil)

// Lazy defers building a provider until its first use. Concurrent first
// callers share one construction; a failed construction is remembered and
// returned from every call.
type Lazy struct {
	get func() (output.HostingPort, error)
}

func NewLazy(build func() (output.HostingPort, error)) *Lazy {
	return &Lazy{get: sync.OnceValues(build)}
}

func (l *Lazy) provider() (output.HostingPort, error) {
	p, err := l.get()
	if err != nil {
		return nil, fmt.Errorf("hosting unavailable: %w", err)
	}
	return p, nil
}

func (l *Lazy) CreateContainer(ctx context.Context, name, description string) (*entity.Container, error) {
	p, err := l.provider()
	if err != nil {
		return nil, err
	}
	return p.CreateContainer(ctx, name, description)
}

func (l *Lazy) GetContainer(ctx context.Context, name string) (*entity.Container, error) {
	p, err := l.provider()
	if err != nil {
		return nil, err
	}
	return p.GetContainer(ctx, name)
}

func (l *Lazy) GetFile(ctx context.Context, container, path, branch string) (*entity.RemoteFile, bool, error) {
	p, err := l.provider()
	if err != nil {
		return nil, false, err
	}
	return p.GetFile(ctx, container, path, branch)
}

func (l *Lazy) PutFile(ctx context.Context, container string, req output.PutFileRequest) (*output.PutFileResult, error) {
	p, err := l.provider()
	if err != nil {
		return nil, err
	}
	return p.PutFile(ctx, container, req)
}

func (l *Lazy) PublicURL(container string) string {
	p, err := l.provider()
	if err != nil {
		return ""
	}
	return p.PublicURL(container)
}
