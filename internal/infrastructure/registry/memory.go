package registry

import (
	"context"
	"sync"

	"app-deployer/internal/application/port/output"
)

var _ output.DeploymentRegistry = (*Memory)(nil)

// Memory keeps deployments for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemory() *Memory {
	return &Memory{names: make(map[string]string)}
}

func (m *Memory) Lookup(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[key]
	return name, ok, nil
}

func (m *Memory) Record(ctx context.Context, key, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[key] = name
	return nil
}
