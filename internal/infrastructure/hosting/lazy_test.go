package hosting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/infrastructure/hosting/memhost"
)

func TestLazy_BuildsOnceUnderConcurrency(t *testing.T) {
	var builds atomic.Int32
	l := NewLazy(func() (output.HostingPort, error) {
		builds.Add(1)
		return memhost.New("octo"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.GetContainer(context.Background(), "missing")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, builds.Load())
	assert.Equal(t, "https://octo.github.io/x", l.PublicURL("x"))
}

func TestLazy_BuildErrorIsSticky(t *testing.T) {
	var builds atomic.Int32
	cause := errors.New("bad credentials")
	l := NewLazy(func() (output.HostingPort, error) {
		builds.Add(1)
		return nil, cause
	})

	_, err := l.CreateContainer(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	_, _, err = l.GetFile(context.Background(), "a", "index.html", "main")
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, l.PublicURL("a"))
	assert.EqualValues(t, 1, builds.Load())
}
